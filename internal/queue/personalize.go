package queue

import "strings"

// Personalize substitutes {{key}} placeholders in the template with values
// from the personalization map. Unknown placeholders are left untouched so a
// bad map never destroys surrounding copy.
func Personalize(template string, data map[string]string) string {
	if len(data) == 0 || template == "" {
		return template
	}
	pairs := make([]string, 0, len(data)*4)
	for key, value := range data {
		pairs = append(pairs,
			"{{"+key+"}}", value,
			"{{ "+key+" }}", value,
		)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
