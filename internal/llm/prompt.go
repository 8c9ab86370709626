package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/medusecase/internal/model"
)

// BuildPrompt constructs the usecase prompt for one medicine.
// The model is told to answer with a bare comma-separated list; the examples
// show the shape we want and the prose we will otherwise have to strip.
func BuildPrompt(rec model.Record) string {
	return fmt.Sprintf(`As a pharmacologist, list ONLY the specific symptoms or diseases treated by this medicine:

Medicine Name: %s
Active Components: %s
Medicine Type: %s

Format: Provide ONLY a comma-separated list of specific symptoms or diseases.
Example good response: "fever, headache, common cold"
Example bad response: "This medicine is used for treatment of fever and related symptoms."

DO NOT write sentences or phrases like "used for", "treats", etc.
DO NOT provide general categories like "pain relief" - be specific like "headache, joint pain"
Keep each symptom or disease to 1-3 words when possible.
`, rec.Name, strings.Join(rec.Compositions, " "), rec.Type)
}
