package v2

import (
	"context"
	"errors"
	"strconv"

	"github.com/crdtsync/decsync/storage"
)

// readSequence returns the byte offset this reader has consumed of a
// writer's append log, or 0 if no cursor file exists yet.
func (e *Engine[E]) readSequence(ctx context.Context, seqFile []string) (int64, error) {
	data, err := e.fsys.Read(ctx, seqFile)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return 0, nil
		}

		return 0, err
	}

	offset, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		e.logger.Warn("ignoring malformed sequence cursor, starting from zero", "error", err)
		return 0, nil
	}

	return offset, nil
}

func (e *Engine[E]) writeSequence(ctx context.Context, seqFile []string, offset int64) error {
	return e.fsys.Write(ctx, seqFile, []byte(strconv.FormatInt(offset, 10)))
}
