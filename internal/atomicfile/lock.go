package atomicfile

import (
	"context"
	"os"
	"time"

	"github.com/gofrs/flock"

	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

const (
	lockSuffix     = ".lock"
	lockRetryDelay = 100 * time.Millisecond
	lockTimeout    = 2 * time.Second
)

// acquireLocks takes an advisory lock per target file. A lock that cannot be
// obtained within the retry window means another invocation is mutating the
// same theme; the batch fails with a BusyError instead of proceeding.
func acquireLocks(ctx context.Context, paths []string) ([]*flock.Flock, error) {
	var locks []*flock.Flock
	for _, path := range paths {
		fl := flock.New(path + lockSuffix)

		lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
		ok, err := fl.TryLockContext(lockCtx, lockRetryDelay)
		cancel()

		if err != nil || !ok {
			releaseLocks(locks)
			return nil, patcherrors.NewBusyError(path, err)
		}
		locks = append(locks, fl)
	}
	return locks, nil
}

func releaseLocks(locks []*flock.Flock) {
	for i := len(locks) - 1; i >= 0; i-- {
		_ = locks[i].Unlock()
		_ = os.Remove(locks[i].Path())
	}
}
