package audio

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// resampleQuality is the beep resampler quality used for rate control.
// 4 is beep's recommended balance of CPU cost and artifact suppression.
const resampleQuality = 4

// Player streams remote episode audio through the system speaker.
// It spools the episode to a local file first so the decoder can seek.
type Player struct {
	state      State
	ctrl       *beep.Ctrl
	resampler  *beep.Resampler
	streamer   beep.StreamSeekCloser
	format     beep.Format
	spool      *os.File
	spoolPath  string
	info       *StreamInfo
	rate       float64
	fetcher    *Fetcher
	finishedCh chan struct{}
}

// StreamInfo describes the currently loaded stream.
type StreamInfo struct {
	URL        string
	Title      string // from embedded tags, may be empty
	SampleRate int
}

var speakerInitialized bool

func New() *Player {
	return &Player{
		state:      Stopped,
		rate:       1.0,
		fetcher:    NewFetcher(),
		finishedCh: make(chan struct{}, 1),
	}
}

// Load fetches the episode at url and prepares it for playback, paused
// at the start. Any previously loaded stream is released first; on
// failure the player is left fully stopped with nothing allocated.
func (p *Player) Load(ctx context.Context, url string) error {
	p.Stop()

	// Small delay to let any pending Beep callback complete after speaker.Clear()
	time.Sleep(10 * time.Millisecond)

	// Drain any stale finish signal from the previous stream
	select {
	case <-p.finishedCh:
	default:
	}

	spoolPath, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}

	f, err := os.Open(spoolPath)
	if err != nil {
		os.Remove(spoolPath)
		return err
	}

	title, err := identify(f)
	if err != nil {
		f.Close()
		os.Remove(spoolPath)
		return err
	}

	streamer, format, err := newMP3Stream(f)
	if err != nil {
		f.Close()
		os.Remove(spoolPath)
		return fmt.Errorf("decode: %w", err)
	}

	if !speakerInitialized {
		err = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
		if err != nil {
			streamer.Close()
			os.Remove(spoolPath)
			return err
		}
		speakerInitialized = true
	}

	p.spool = f
	p.spoolPath = spoolPath
	p.streamer = streamer
	p.format = format
	p.resampler = beep.ResampleRatio(resampleQuality, p.rate, streamer)
	p.ctrl = &beep.Ctrl{Streamer: p.resampler, Paused: true}
	p.info = &StreamInfo{
		URL:        url,
		Title:      title,
		SampleRate: int(format.SampleRate),
	}
	p.state = Paused

	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		select {
		case p.finishedCh <- struct{}{}:
		default:
		}
	})))

	return nil
}

// identify rejects spooled files that are clearly not MP3 and returns
// the embedded title when tags are present. Untagged files fail
// identification; those are left to the decoder to accept or reject.
func identify(f *os.File) (string, error) {
	defer f.Seek(0, 0) //nolint:errcheck // reset for the decoder

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", nil
	}
	if ft := m.FileType(); ft != tag.MP3 && ft != tag.UnknownFileType {
		return "", fmt.Errorf("unsupported format: %s", ft)
	}
	return m.Title(), nil
}

// Info returns metadata for the loaded stream, or nil if stopped.
func (p *Player) Info() *StreamInfo {
	return p.info
}

// FinishedChan returns a channel that receives a signal when the loaded
// stream plays to its end.
func (p *Player) FinishedChan() <-chan struct{} {
	return p.finishedCh
}
