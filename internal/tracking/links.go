package tracking

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/marisolvega/funnelmail-backend/pkg/db/models"
	"github.com/marisolvega/funnelmail-backend/pkg/token"
)

// LinkBuilder produces the signed tracking URLs embedded in outbound mail.
type LinkBuilder struct {
	signer  *token.Signer
	baseURL string
}

func NewLinkBuilder(signer *token.Signer, baseURL string) (*LinkBuilder, error) {
	if signer == nil {
		return nil, fmt.Errorf("token signer required")
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("public base url required")
	}
	return &LinkBuilder{signer: signer, baseURL: baseURL}, nil
}

func (b *LinkBuilder) OpenPixelURL(job models.EmailJob) (string, error) {
	raw, err := b.signer.Sign(claimsFor(token.KindOpen, job))
	if err != nil {
		return "", err
	}
	return b.baseURL + "/t/open?t=" + url.QueryEscape(raw), nil
}

func (b *LinkBuilder) UnsubscribeURL(job models.EmailJob) (string, error) {
	raw, err := b.signer.Sign(claimsFor(token.KindUnsubscribe, job))
	if err != nil {
		return "", err
	}
	return b.baseURL + "/t/unsubscribe?t=" + url.QueryEscape(raw), nil
}

func (b *LinkBuilder) ClickURL(job models.EmailJob, target string) (string, error) {
	raw, err := b.signer.Sign(claimsFor(token.KindClick, job))
	if err != nil {
		return "", err
	}
	return b.baseURL + "/t/click?t=" + url.QueryEscape(raw) + "&url=" + url.QueryEscape(target), nil
}

func claimsFor(kind token.Kind, job models.EmailJob) token.Claims {
	claims := token.Claims{
		Kind:  kind,
		Email: job.RecipientEmail,
		JobID: job.ID.String(),
	}
	if job.LeadID != nil {
		claims.LeadID = job.LeadID.String()
	}
	return claims
}

var hrefPattern = regexp.MustCompile(`href="(https?://[^"]+)"`)

// Decorate produces the outbound copy of the HTML body: every hyperlink is
// rewritten through the click redirect, and the open pixel plus unsubscribe
// footer are appended. The stored body is never mutated.
func (b *LinkBuilder) Decorate(job models.EmailJob) (string, error) {
	html := job.HTMLBody

	var rewriteErr error
	html = hrefPattern.ReplaceAllStringFunc(html, func(match string) string {
		if rewriteErr != nil {
			return match
		}
		target := hrefPattern.FindStringSubmatch(match)[1]
		tracked, err := b.ClickURL(job, target)
		if err != nil {
			rewriteErr = err
			return match
		}
		return `href="` + tracked + `"`
	})
	if rewriteErr != nil {
		return "", rewriteErr
	}

	pixelURL, err := b.OpenPixelURL(job)
	if err != nil {
		return "", err
	}
	unsubURL, err := b.UnsubscribeURL(job)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(html)
	sb.WriteString(`<img src="`)
	sb.WriteString(pixelURL)
	sb.WriteString(`" width="1" height="1" alt="" style="display:none;">`)
	sb.WriteString(`<div style="text-align:center;font-size:12px;color:#999;margin-top:24px;">`)
	sb.WriteString(`<a href="`)
	sb.WriteString(unsubURL)
	sb.WriteString(`" style="color:#999;">Unsubscribe</a></div>`)
	return sb.String(), nil
}
