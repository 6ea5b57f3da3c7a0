package store

import (
	"context"
	"fmt"

	"github.com/sacolalabs/ideiad/internal/accesslog"
)

// InsertAccess records one access-log entry.
func (s *Store) InsertAccess(ctx context.Context, entry accesslog.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO acessos (usuario_id, ip_address, user_agent, pais, cidade,
		                     regiao, timezone, latitude, longitude, endpoint,
		                     metodo_http, status_code, tempo_resposta_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.UserID, entry.IPAddress, entry.UserAgent, entry.Country,
		entry.City, entry.Region, entry.Timezone, entry.Latitude,
		entry.Longitude, entry.Endpoint, entry.Method, entry.StatusCode,
		entry.ResponseTimeMS)
	if err != nil {
		return fmt.Errorf("inserting access log: %w", err)
	}
	return nil
}
