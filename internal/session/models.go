package session

import (
	"time"

	"github.com/manash/genstate/pkg/models"
)

// Session is the persisted root record. Iterations is the active timeline
// (Iterations[i].Index == i); Archived holds branches abandoned by a push.
type Session struct {
	ID                 string               `json:"id"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
	Iterations         []models.Iteration   `json:"iterations"`
	Archived           []models.Iteration   `json:"archived,omitempty"`
	Metadata           Metadata             `json:"metadata"`
	CurrentAsset       *models.AssetSession `json:"currentAsset,omitempty"`
	CurrentWireframeID string               `json:"currentWireframeId,omitempty"`
}

type Metadata struct {
	// TotalIterations counts every iteration ever created in the session and
	// is the next Seq to hand out.
	TotalIterations int    `json:"totalIterations"`
	LastPrompt      string `json:"lastPrompt,omitempty"`
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Iterations = models.CloneIterations(s.Iterations)
	out.Archived = models.CloneIterations(s.Archived)
	out.CurrentAsset = s.CurrentAsset.Clone()
	return &out
}

func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
