// Package accesslog records request access entries best-effort: a failed
// insert is logged and swallowed, never failing the request it describes.
package accesslog

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Entry is one recorded access.
type Entry struct {
	UserID         *int64   `json:"usuario_id"`
	IPAddress      *string  `json:"ip_address"`
	UserAgent      *string  `json:"user_agent"`
	Country        *string  `json:"pais"`
	City           *string  `json:"cidade"`
	Region         *string  `json:"regiao"`
	Timezone       *string  `json:"timezone"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Endpoint       string   `json:"endpoint"`
	Method         string   `json:"metodo_http"`
	StatusCode     int      `json:"status_code"`
	ResponseTimeMS *int     `json:"tempo_resposta_ms"`
}

// AccessStore persists entries. Implemented by internal/store.
type AccessStore interface {
	InsertAccess(ctx context.Context, entry Entry) error
}

// Recorder writes access entries.
type Recorder struct {
	store  AccessStore
	logger *zap.Logger
}

// NewRecorder creates a recorder.
func NewRecorder(store AccessStore, logger *zap.Logger) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("access store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger}, nil
}

// Record persists an entry. Failures are logged at warn and swallowed.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if err := r.store.InsertAccess(ctx, entry); err != nil {
		r.logger.Warn("access log insert failed",
			zap.String("endpoint", entry.Endpoint),
			zap.Error(err))
	}
}
