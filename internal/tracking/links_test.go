package tracking

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marisolvega/funnelmail-backend/pkg/db/models"
	"github.com/marisolvega/funnelmail-backend/pkg/token"
)

func newTestBuilder(t *testing.T) (*LinkBuilder, *token.Signer) {
	t.Helper()
	signer, err := token.NewSigner("links-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	builder, err := NewLinkBuilder(signer, "https://mail.example.com/")
	if err != nil {
		t.Fatalf("NewLinkBuilder: %v", err)
	}
	return builder, signer
}

func testJob() models.EmailJob {
	leadID := uuid.New()
	return models.EmailJob{
		ID:             uuid.New(),
		LeadID:         &leadID,
		RecipientEmail: "lead@example.com",
		HTMLBody:       `<p>See <a href="https://example.com/a">A</a> and <a href="https://example.com/b">B</a>.</p>`,
	}
}

func TestOpenPixelURLCarriesVerifiableToken(t *testing.T) {
	builder, signer := newTestBuilder(t)
	job := testJob()

	raw, err := builder.OpenPixelURL(job)
	if err != nil {
		t.Fatalf("OpenPixelURL: %v", err)
	}
	if !strings.HasPrefix(raw, "https://mail.example.com/t/open?t=") {
		t.Fatalf("unexpected url %q", raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing url: %v", err)
	}
	claims, err := signer.Parse(parsed.Query().Get("t"), token.KindOpen)
	if err != nil {
		t.Fatalf("parsing token: %v", err)
	}
	if claims.Email != job.RecipientEmail {
		t.Fatalf("expected recipient in claims, got %q", claims.Email)
	}
	if claims.JobID != job.ID.String() {
		t.Fatalf("expected job id in claims, got %q", claims.JobID)
	}
}

func TestClickURLEmbedsTarget(t *testing.T) {
	builder, signer := newTestBuilder(t)
	job := testJob()

	raw, err := builder.ClickURL(job, "https://example.com/page?x=1&y=2")
	if err != nil {
		t.Fatalf("ClickURL: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing url: %v", err)
	}
	if got := parsed.Query().Get("url"); got != "https://example.com/page?x=1&y=2" {
		t.Fatalf("expected round-tripped target, got %q", got)
	}
	if _, err := signer.Parse(parsed.Query().Get("t"), token.KindClick); err != nil {
		t.Fatalf("parsing token: %v", err)
	}
}

func TestDecorateRewritesLinksAndAppendsArtifacts(t *testing.T) {
	builder, _ := newTestBuilder(t)
	job := testJob()
	original := job.HTMLBody

	html, err := builder.Decorate(job)
	if err != nil {
		t.Fatalf("Decorate: %v", err)
	}

	if strings.Contains(html, `href="https://example.com/a"`) || strings.Contains(html, `href="https://example.com/b"`) {
		t.Fatal("expected every link rewritten through the click redirect")
	}
	if got := strings.Count(html, "/t/click?t="); got != 2 {
		t.Fatalf("expected 2 click links, got %d", got)
	}
	if !strings.Contains(html, "/t/open?t=") {
		t.Fatal("expected open pixel appended")
	}
	if !strings.Contains(html, "/t/unsubscribe?t=") {
		t.Fatal("expected unsubscribe footer appended")
	}
	if !strings.HasPrefix(html, original[:10]) {
		t.Fatal("decorated body must start with the original content")
	}
	if job.HTMLBody != original {
		t.Fatal("decorate must not mutate the job")
	}
}

func TestDecorateLeavesNonHTTPLinksAlone(t *testing.T) {
	builder, _ := newTestBuilder(t)
	job := testJob()
	job.HTMLBody = `<a href="mailto:support@example.com">write us</a>`

	html, err := builder.Decorate(job)
	if err != nil {
		t.Fatalf("Decorate: %v", err)
	}
	if !strings.Contains(html, `href="mailto:support@example.com"`) {
		t.Fatal("mailto links must not be rewritten")
	}
}
