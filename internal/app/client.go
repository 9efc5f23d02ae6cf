package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samuflix/backend/internal/config"
	"github.com/samuflix/backend/internal/docstore"
	"github.com/samuflix/backend/internal/gateway"
	"github.com/samuflix/backend/internal/identity"
	"github.com/samuflix/backend/internal/localstore"
	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/media"
	"github.com/samuflix/backend/internal/restclient"
	"github.com/samuflix/backend/internal/videos"
)

// client holds the device-side collaborators shared by the client commands.
type client struct {
	cfg       config.Config
	local     *localstore.Store
	docs      *docstore.Store
	rest      *restclient.Client
	identity  *identity.Provider
	gateway   *gateway.Gateway
	extractor *media.FrameExtractor
	publisher *videos.Publisher
	gallery   *videos.Gallery

	// newSession builds the recorder; replaced in tests.
	newSession func() *media.Session
	// stdin feeds messages typed while following the chat; nil disables it.
	stdin io.Reader
}

// healthTimeout bounds the liveness probe made before each command.
const healthTimeout = 3 * time.Second

// primaryBackend probes the REST backend once. A backend that does not answer
// is left out of the gateway for the whole command, so every operation goes
// straight to the secondary tier instead of waiting out the request timeout.
func primaryBackend(ctx context.Context, rest *restclient.Client) gateway.Backend {
	probeCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	err := rest.Health(probeCtx)
	switch {
	case err == nil:
		return rest
	case errors.Is(err, gateway.ErrNotConfigured):
		return nil
	default:
		logging.FromContext(ctx).Warn("primary backend unreachable, using fallbacks for this command", "error", err)
		return nil
	}
}

func openClient(ctx context.Context, cfg config.Config) (*client, error) {
	local, err := localstore.Open(ctx, cfg.Client.LocalStorePath)
	if err != nil {
		return nil, err
	}

	docs, err := docstore.Open(ctx, cfg.DocStore)
	if err != nil {
		_ = local.Close()
		return nil, err
	}

	rest := restclient.New(cfg.Client.APIURL, cfg.Client.RequestTimeout)
	ids := identity.New(local)
	gw := gateway.New(primaryBackend(ctx, rest), docs, local, ids)

	capture := cfg.Capture
	extractor := media.NewFrameExtractor(func() media.Player {
		return media.NewFFmpegPlayer(capture.FFmpegPath, capture.FFprobePath)
	}, capture.ThumbnailTimeout)

	c := &client{
		cfg:       cfg,
		stdin:     os.Stdin,
		local:     local,
		docs:      docs,
		rest:      rest,
		identity:  ids,
		gateway:   gw,
		extractor: extractor,
		publisher: videos.NewPublisher(rest, extractor, gw),
		gallery:   videos.NewGallery(gw, rest, extractor, rest.FullURL, 10*time.Minute),
	}
	c.newSession = func() *media.Session {
		capturer := media.NewFFmpegCapturer(capture.FFmpegPath, capture.VideoDevice, capture.AudioDevice)
		return media.NewSession(capturer, media.SysfsDeviceLister{}, nil)
	}
	return c, nil
}

func (c *client) Close(ctx context.Context) error {
	return errors.Join(c.docs.Close(ctx), c.local.Close())
}

// runClient loads configuration, opens the client and runs one command until
// it finishes or the process is interrupted.
func runClient(ctx context.Context, name string, args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := openClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := c.Close(closeCtx); err != nil {
			logger.Warn("close client", "error", err)
		}
	}()

	return c.execute(ctx, name, args, out)
}

func (c *client) execute(ctx context.Context, name string, args []string, out io.Writer) error {
	cmd, ok := clientCommands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(ctx, c, args, out)
}
