package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrOutOfRange = errors.New("index out of range")
	ErrAmbiguous  = errors.New("ambiguous reference")
	ErrStorage    = errors.New("storage failure")
	ErrInvariant  = errors.New("invariant violation")
)

var (
	ErrVariantNotFound   = fmt.Errorf("variant %w", ErrNotFound)
	ErrComponentNotFound = fmt.Errorf("component %w", ErrNotFound)
	ErrEmptyPrompt       = errors.New("prompt cannot be empty")
)

type IterationStatus string

const (
	StatusActive   IterationStatus = "active"
	StatusUndone   IterationStatus = "undone"
	StatusInactive IterationStatus = "inactive"
	StatusArchived IterationStatus = "archived"
)

func (s IterationStatus) String() string {
	return string(s)
}

// Iteration is one recorded generation step. Index is the position in the
// session timeline; Seq is unique within the session and never reused.
type Iteration struct {
	Index        int              `json:"index"`
	Seq          int              `json:"seq"`
	Prompt       string           `json:"prompt"`
	Timestamp    time.Time        `json:"timestamp"`
	Result       GenerationResult `json:"result"`
	RolledBackTo bool             `json:"rolledBackTo"`
	Status       IterationStatus  `json:"status"`
}

func (it Iteration) Active() bool {
	return it.Status == "" || it.Status == StatusActive
}

// GenerationResult is what the generation engine handed back for an
// iteration. Image carries raw bytes on the way in and is never persisted;
// the stored record only keeps ImageRef.
type GenerationResult struct {
	Image    []byte             `json:"-"`
	ImageRef string             `json:"imageRef,omitempty"`
	MimeType string             `json:"mimeType,omitempty"`
	Metadata GenerationMetadata `json:"metadata"`
}

type GenerationMetadata struct {
	Engine    string         `json:"engine,omitempty"`
	Model     string         `json:"model,omitempty"`
	Seed      int64          `json:"seed,omitempty"`
	Width     int            `json:"width,omitempty"`
	Height    int            `json:"height,omitempty"`
	Steps     int            `json:"steps,omitempty"`
	LatencyMs int64          `json:"latencyMs,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

func (r GenerationResult) Clone() GenerationResult {
	out := r
	out.Image = slices.Clone(r.Image)
	out.Metadata.Extra = cloneProperties(r.Metadata.Extra)
	return out
}

func (it Iteration) Clone() Iteration {
	out := it
	out.Result = it.Result.Clone()
	return out
}

func CloneIterations(iters []Iteration) []Iteration {
	if iters == nil {
		return nil
	}
	out := make([]Iteration, len(iters))
	for i := range iters {
		out[i] = iters[i].Clone()
	}
	return out
}

type Variant struct {
	ID          string          `json:"id"`
	Seed        int64           `json:"seed"`
	Prompt      string          `json:"prompt"`
	ImageBase64 string          `json:"imageBase64,omitempty"`
	Metadata    VariantMetadata `json:"metadata"`
}

type VariantMetadata struct {
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Steps     int   `json:"steps"`
	LatencyMs int64 `json:"latencyMs"`
}

type Refinement struct {
	BaseVariantID string    `json:"baseVariantId"`
	VariantID     string    `json:"variantId"`
	Instruction   string    `json:"instruction,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AssetSession tracks the candidates offered for one asset request and the
// refinements derived from them.
type AssetSession struct {
	AssetType         string       `json:"assetType"`
	Description       string       `json:"description"`
	AllVariants       []Variant    `json:"allVariants"`
	SelectedVariantID string       `json:"selectedVariantId,omitempty"`
	Refinements       []Refinement `json:"refinements,omitempty"`
}

func (a *AssetSession) Variant(id string) (Variant, bool) {
	for _, v := range a.AllVariants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Parent returns the variant a refinement was derived from.
func (a *AssetSession) Parent(variantID string) (Variant, bool) {
	for _, r := range a.Refinements {
		if r.VariantID == variantID {
			return a.Variant(r.BaseVariantID)
		}
	}
	return Variant{}, false
}

func (a *AssetSession) Selected() (Variant, bool) {
	if a.SelectedVariantID == "" {
		return Variant{}, false
	}
	return a.Variant(a.SelectedVariantID)
}

func (a *AssetSession) Clone() *AssetSession {
	if a == nil {
		return nil
	}
	out := *a
	out.AllVariants = slices.Clone(a.AllVariants)
	out.Refinements = slices.Clone(a.Refinements)
	return &out
}
