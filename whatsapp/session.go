package whatsapp

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SessionPath é o diretório de credenciais de um tenant dentro do diretório
// de sessões ("session-<tenantId>", como o cliente web grava).
func SessionPath(sessionDir, tenantID string) string {
	return filepath.Join(sessionDir, "session-"+tenantID)
}

// ClearSession remove o diretório de sessão do tenant com retry, porque o
// transporte pode ainda segurar locks de arquivo logo após o teardown
// (EBUSY transitório). 5 tentativas com 500ms; falha definitiva só loga.
func ClearSession(sessionDir, tenantID string) error {
	path := SessionPath(sessionDir, tenantID)

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 5)

	err := backoff.Retry(func() error {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
		return os.RemoveAll(path)
	}, policy)

	if err != nil {
		zap.L().Error("failed to delete whatsapp session folder",
			zap.String("tenant", tenantID),
			zap.String("path", path),
			zap.Error(err))
		return eris.Wrapf(err, "failed to clear session for tenant %s", tenantID)
	}
	return nil
}
