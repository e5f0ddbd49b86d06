package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/heathj/statetoggle/server"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve PAGE",
	Short: "Serve a loaded page for remote clicking",
	Long: `Load PAGE with the state toggles bound and serve it over HTTP:

  POST /click     {"selector": "#open"} clicks the first match
  GET  /document  the current markup
  GET  /ws        attribute mutations as they happen
  GET  /metrics   Prometheus metrics`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openPage(args[0], getStringWithFallback("url", "serve.url", ""))
		if err != nil {
			return err
		}
		handler := server.New(w,
			server.WithLogger(log),
			server.WithWriteTimeout(getDurationWithFallback("write-timeout", "serve.write-timeout", 5*time.Second)))
		srv := &http.Server{
			Addr:              getStringWithFallback("addr", "serve.addr", ":8080"),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, srv)
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", ":8080", "Listen address")
	f.Duration("write-timeout", 5*time.Second, "Drop WebSocket clients that take longer than this to accept a message")
	f.String("url", "", "Document URL used to resolve links (default: about:blank)")
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	log.WithField("addr", listener.Addr().String()).Info("serving")

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
	})
	return grp.Wait()
}
