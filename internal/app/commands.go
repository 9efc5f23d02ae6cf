package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/samuflix/backend/internal/gateway"
	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/models"
)

type clientCommand func(ctx context.Context, c *client, args []string, out io.Writer) error

var clientCommands = map[string]clientCommand{
	"record":     recordCommand,
	"gallery":    galleryCommand,
	"favorite":   favoriteCommand,
	"unfavorite": unfavoriteCommand,
	"favorites":  favoritesCommand,
	"send":       sendCommand,
	"messages":   messagesCommand,
}

// finalizeTimeout bounds stopping the recorder and publishing after the
// recording window, even when the command was interrupted.
const finalizeTimeout = 2 * time.Minute

func recordCommand(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	fs.SetOutput(out)
	duration := fs.Duration("duration", 10*time.Second, "how long to record")
	title := fs.String("title", "", "title for the video")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*title) == "" {
		return errors.New("record: -title is required")
	}
	if *duration <= 0 {
		return errors.New("record: -duration must be positive")
	}

	session := c.newSession()
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	fmt.Fprintf(out, "recording for %s...\n", *duration)

	timer := time.NewTimer(*duration)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		fmt.Fprintln(out, "interrupted, finishing recording")
	}

	finalizeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	blob, err := session.Stop(finalizeCtx)
	if err != nil {
		logging.FromContext(ctx).Warn("recording stopped with error", "error", err)
	}

	pub, err := c.publisher.Publish(finalizeCtx, *title, blob)
	if pub.Video.ID != "" {
		printVideos(out, []models.Video{pub.Video}, nil)
		fmt.Fprintf(out, "saved to: %s\n", pub.Tier)
	}
	if pub.MediaErr != nil {
		fmt.Fprintf(out, "warning: video file not uploaded: %v\n", pub.MediaErr)
	}
	if pub.ThumbErr != nil {
		fmt.Fprintf(out, "warning: couldn't save thumbnail: %v\n", pub.ThumbErr)
	}
	return err
}

func galleryCommand(ctx context.Context, c *client, args []string, out io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("gallery: unexpected arguments %v", args)
	}

	list, tier := c.gallery.Load(ctx)
	favorites := c.gateway.FavoriteSet(ctx)
	printVideos(out, list, favorites)
	fmt.Fprintf(out, "%d videos from %s\n", len(list), tier)
	return nil
}

func favoriteCommand(ctx context.Context, c *client, args []string, out io.Writer) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errors.New("favorite: expected a video id")
	}
	id := strings.TrimSpace(args[0])

	list, _ := c.gateway.Videos(ctx)
	var target *models.Video
	for i := range list {
		if list[i].ID == id {
			target = &list[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("favorite: video %q not found", id)
	}

	added, err := c.gateway.ToggleFavorite(ctx, *target)
	state := "removed from"
	if added {
		state = "added to"
	}
	fmt.Fprintf(out, "%s %s favorites\n", target.Title, state)

	var exhausted *gateway.ExhaustedError
	if errors.As(err, &exhausted) {
		fmt.Fprintln(out, "warning: kept on this device only")
		return nil
	}
	return err
}

func unfavoriteCommand(ctx context.Context, c *client, args []string, out io.Writer) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errors.New("unfavorite: expected a video id")
	}
	id := strings.TrimSpace(args[0])

	err := c.gateway.RemoveFavorite(ctx, id)
	var exhausted *gateway.ExhaustedError
	switch {
	case err == nil:
		fmt.Fprintf(out, "%s removed from favorites\n", id)
		return nil
	case errors.As(err, &exhausted) && exhausted.KeptLocally:
		fmt.Fprintf(out, "%s removed from favorites\n", id)
		fmt.Fprintln(out, "warning: kept on this device only")
		return nil
	default:
		return err
	}
}

func favoritesCommand(ctx context.Context, c *client, args []string, out io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("favorites: unexpected arguments %v", args)
	}

	favorites, tier := c.gateway.Favorites(ctx)
	list := make([]models.Video, 0, len(favorites))
	for _, f := range favorites {
		list = append(list, f.Video())
	}
	printVideos(out, list, nil)
	fmt.Fprintf(out, "%d favorites from %s\n", len(list), tier)
	return nil
}

func sendCommand(ctx context.Context, c *client, args []string, out io.Writer) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	message, err := c.gateway.SendMessage(ctx, text)
	if errors.Is(err, gateway.ErrEmptyMessage) {
		return errors.New("send: message text is required")
	}
	if message.CreatedAt != 0 {
		printMessages(out, []models.Message{message})
	}

	var exhausted *gateway.ExhaustedError
	if errors.As(err, &exhausted) && exhausted.KeptLocally {
		fmt.Fprintln(out, "warning: kept on this device only")
		return nil
	}
	return err
}

func messagesCommand(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("messages", flag.ContinueOnError)
	fs.SetOutput(out)
	follow := fs.Bool("follow", false, "keep refreshing the chat and send each line typed on stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, _ := c.gateway.Messages(ctx)
	view := gateway.NewChatView(list)
	printer := &chatPrinter{out: out}
	printer.show(view.Snapshot())
	if !*follow {
		return nil
	}

	followErr := make(chan error, 1)
	go func() {
		followErr <- gateway.Follow(ctx, c.gateway, view, c.cfg.Client.MessageRefresh, printer.show)
	}()

	lines := readLines(ctx, c.stdin)
	for {
		select {
		case err := <-followErr:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			message, err := c.gateway.SendMessage(ctx, line)
			if message.CreatedAt == 0 {
				logging.FromContext(ctx).Warn("message not sent", "error", err)
				continue
			}
			view.Append(message)
			printer.sent(message)

			var exhausted *gateway.ExhaustedError
			if errors.As(err, &exhausted) {
				printer.note("warning: kept on this device only")
			}
		}
	}
}

// readLines streams lines from r until EOF or ctx is done. A nil reader
// yields a nil channel.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	if r == nil {
		return nil
	}
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// chatPrinter writes chat updates to a terminal. It prints only what is new
// when the view grew, and reprints the whole view when earlier entries changed.
type chatPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	shown []models.Message
}

func (p *chatPrinter) show(snapshot []models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(snapshot) >= len(p.shown) && slices.Equal(p.shown, snapshot[:len(p.shown)]) {
		printMessages(p.out, snapshot[len(p.shown):])
	} else {
		fmt.Fprintln(p.out, "-- chat history changed --")
		printMessages(p.out, snapshot)
	}
	p.shown = slices.Clone(snapshot)
}

func (p *chatPrinter) sent(message models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	printMessages(p.out, []models.Message{message})
	p.shown = append(p.shown, message)
}

func (p *chatPrinter) note(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

func printVideos(out io.Writer, list []models.Video, favorites map[string]bool) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPUBLISHED\tFAV\tMEDIA\tTHUMB")
	for _, v := range list {
		fav := ""
		if favorites[v.ID] {
			fav = "*"
		}
		published := time.UnixMilli(v.PublishedAt).Format(time.DateTime)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", v.ID, v.Title, published, fav, orDash(v.MediaURL), orDash(v.ThumbURL))
	}
	_ = w.Flush()
}

func printMessages(out io.Writer, list []models.Message) {
	for _, m := range list {
		fmt.Fprintf(out, "[%s] %s: %s\n", time.UnixMilli(m.CreatedAt).Format(time.TimeOnly), m.UserID, m.Text)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
