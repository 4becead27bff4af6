package ingestion

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ragscout/ragscout/internal/document"
)

const timedTextURL = "https://video.google.com/timedtext"

// Video ID extraction for the URL shapes YouTube hands out: standard
// watch links, youtu.be short links and embeds.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
}

// VideoID extracts the 11-character video identifier from a YouTube URL.
func VideoID(videoURL string) (string, error) {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(videoURL); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("could not extract video ID from URL: %s", videoURL)
}

// TranscriptLoader fetches video transcripts through the timedtext API.
type TranscriptLoader struct {
	client   *http.Client
	baseURL  string
	language string
}

// NewTranscriptLoader creates a transcript loader for the given
// language ("en" if empty).
func NewTranscriptLoader(language string, timeout time.Duration) *TranscriptLoader {
	if language == "" {
		language = "en"
	}
	return &TranscriptLoader{
		client:   newHTTPClient(timeout),
		baseURL:  timedTextURL,
		language: language,
	}
}

type transcriptTrack struct {
	LangCode string `xml:"lang_code,attr"`
	Kind     string `xml:"kind,attr"` // "asr" marks auto-generated tracks
	Name     string `xml:"name,attr"`
}

type trackList struct {
	XMLName xml.Name          `xml:"transcript_list"`
	Tracks  []transcriptTrack `xml:"track"`
}

type transcriptSegment struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

type transcriptXML struct {
	XMLName  xml.Name            `xml:"transcript"`
	Segments []transcriptSegment `xml:"text"`
}

// Load fetches the transcript for a video URL as a Document. A manually
// authored track in the target language is preferred over an
// auto-generated one; if neither exists the load fails.
func (l *TranscriptLoader) Load(ctx context.Context, videoURL string) (document.Document, error) {
	log.Printf("[Transcript] Loading: %s", videoURL)

	videoID, err := VideoID(videoURL)
	if err != nil {
		return document.Document{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	track, err := l.pickTrack(ctx, videoID)
	if err != nil {
		return document.Document{}, err
	}

	segments, err := l.fetchTrack(ctx, videoID, track)
	if err != nil {
		return document.Document{}, err
	}

	text := formatSegments(segments)
	if text == "" {
		return document.Document{}, fmt.Errorf("%w: empty transcript for video %s", ErrExtraction, videoID)
	}

	doc := document.Document{
		PageContent: text,
		Metadata: document.Metadata{
			Source:        videoURL,
			SourceType:    document.SourceVideo,
			VideoID:       videoID,
			ContentLength: len(text),
			Extra: map[string]string{
				"num_segments": strconv.Itoa(len(segments)),
				"track_kind":   trackKindLabel(track),
			},
		},
	}
	log.Printf("[Transcript] Loaded %d characters (%d segments) for video %s", len(text), len(segments), videoID)
	return doc, nil
}

// pickTrack lists the available transcript tracks and selects the best
// one in the target language.
func (l *TranscriptLoader) pickTrack(ctx context.Context, videoID string) (transcriptTrack, error) {
	listURL := fmt.Sprintf("%s?type=list&v=%s", l.baseURL, url.QueryEscape(videoID))
	body, err := fetch(ctx, l.client, listURL)
	if err != nil {
		return transcriptTrack{}, err
	}

	var list trackList
	if err := xml.Unmarshal(body, &list); err != nil {
		return transcriptTrack{}, fmt.Errorf("%w: parsing track list: %v", ErrExtraction, err)
	}

	var generated *transcriptTrack
	for i, track := range list.Tracks {
		if track.LangCode != l.language {
			continue
		}
		if track.Kind == "" {
			log.Printf("[Transcript] Found manually created %s transcript for %s", l.language, videoID)
			return track, nil
		}
		if generated == nil {
			generated = &list.Tracks[i]
		}
	}
	if generated != nil {
		log.Printf("[Transcript] Found auto-generated %s transcript for %s", l.language, videoID)
		return *generated, nil
	}
	return transcriptTrack{}, fmt.Errorf("%w: no %s transcript available for video %s", ErrExtraction, l.language, videoID)
}

func (l *TranscriptLoader) fetchTrack(ctx context.Context, videoID string, track transcriptTrack) ([]transcriptSegment, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", track.LangCode)
	if track.Kind != "" {
		q.Set("kind", track.Kind)
	}
	if track.Name != "" {
		q.Set("name", track.Name)
	}

	body, err := fetch(ctx, l.client, l.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var parsed transcriptXML
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parsing transcript: %v", ErrExtraction, err)
	}
	return parsed.Segments, nil
}

// formatSegments renders each timestamped segment as "[MM:SS] text".
func formatSegments(segments []transcriptSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		// The timedtext payload double-escapes entities.
		text := strings.TrimSpace(html.UnescapeString(seg.Text))
		if text == "" {
			continue
		}
		minutes := int(seg.Start) / 60
		seconds := int(seg.Start) % 60
		fmt.Fprintf(&b, "[%02d:%02d] %s\n", minutes, seconds, text)
	}
	return strings.TrimSpace(b.String())
}

func trackKindLabel(track transcriptTrack) string {
	if track.Kind == "asr" {
		return "generated"
	}
	return "manual"
}
