package predict

import "context"

// Kind distinguishes how a source identifies tags.
type Kind string

const (
	// KindCustom sources emit canonical taxonomy tag IDs directly.
	KindCustom Kind = "custom"
	// KindGeneral sources emit external labels that need vocabulary mapping.
	KindGeneral Kind = "general"
)

// Prediction is one raw classifier output. Custom sources populate TagID;
// general sources populate Label.
type Prediction struct {
	TagID      int64   `json:"tag_id,omitempty"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Source is one prediction backend for an image.
type Source interface {
	Name() string
	Version() string
	Kind() Kind
	Predict(ctx context.Context, imageRef string) ([]Prediction, error)
}

// SourceFunc adapts a function to the Source interface, mainly for tests.
type SourceFunc struct {
	SourceName    string
	SourceVersion string
	SourceKind    Kind
	Fn            func(ctx context.Context, imageRef string) ([]Prediction, error)
}

func (s SourceFunc) Name() string    { return s.SourceName }
func (s SourceFunc) Version() string { return s.SourceVersion }
func (s SourceFunc) Kind() Kind      { return s.SourceKind }

func (s SourceFunc) Predict(ctx context.Context, imageRef string) ([]Prediction, error) {
	return s.Fn(ctx, imageRef)
}
