package control

import (
	"bufio"
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/command"
)

// RunReader feeds bytes from r through a command accumulator into the
// target until EOF, a read error, cancellation, or an engine fault. It is
// how stdin keeps the interactive type-a-frequency workflow alive.
//
// Reads happen on a helper goroutine so a cancelled context stops command
// processing immediately; a read blocked on an idle stream is abandoned
// and drains nowhere.
func RunReader(ctx context.Context, r io.Reader, target Target, logger *zap.Logger) error {
	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		br := bufio.NewReader(r)
		buf := make([]byte, 256)
		for {
			n, err := br.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	acc := command.NewAccumulator()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-target.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				logger.Info("command input closed")
				return nil
			}
			return err
		case chunk := <-chunks:
			for _, c := range chunk {
				if out, ok := acc.Feed(c); ok {
					target.Apply(out)
				}
			}
		}
	}
}
