// Package caption generates a short caption for uploads that arrive without
// one. Suggestion is best-effort: a failure leaves the caption empty.
package caption

import "context"

// Prompt asks for something short enough to sit under a gallery thumbnail.
const Prompt = `Write one short, warm caption (at most 12 words) for this photo
from a family memorial gallery. Respond with the caption only, no quotes.`

type Suggester interface {
	Suggest(ctx context.Context, imageData []byte, mimeType string) (string, error)
}
