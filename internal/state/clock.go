package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOperationID returns a process-unique id of the form op_<unix millis>_<random suffix>.
func NewOperationID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("op_%d_%s", now.UnixMilli(), suffix)
}
