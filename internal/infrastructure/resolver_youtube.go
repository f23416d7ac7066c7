package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

// youtubeAPI is the subset of *youtube.Client used by YouTubeResolver
type youtubeAPI interface {
	GetPlaylistContext(ctx context.Context, url string) (*youtube.Playlist, error)
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// YouTubeResolver resolves references through the YouTube web API
type YouTubeResolver struct {
	client youtubeAPI
	logger *zap.Logger
}

// NewYouTubeResolver creates a resolver backed by a default youtube.Client
func NewYouTubeResolver(logger *zap.Logger) *YouTubeResolver {
	return &YouTubeResolver{
		client: &youtube.Client{},
		logger: logger,
	}
}

// ResolveCollection resolves references carrying a list= query parameter
func (r *YouTubeResolver) ResolveCollection(ctx context.Context, ref string) (*domain.CollectionMetadata, error) {
	if !isPlaylistReference(ref) {
		return nil, domain.ErrNotACollection
	}

	playlist, err := r.client.GetPlaylistContext(ctx, ref)
	if err != nil {
		return nil, &domain.ResolutionError{Scope: "collection", Reference: ref, Err: err}
	}

	meta := &domain.CollectionMetadata{Title: playlist.Title}
	for _, entry := range playlist.Videos {
		meta.Items = append(meta.Items, domain.ItemDescriptor{
			Title:           entry.Title,
			SourceReference: entry.ID,
		})
	}

	r.logger.Debug("Resolved playlist",
		zap.String("reference", ref),
		zap.String("title", playlist.Title),
		zap.Int("items", len(meta.Items)))
	return meta, nil
}

// ResolveItem resolves a single video reference
func (r *YouTubeResolver) ResolveItem(ctx context.Context, ref string) (*domain.ItemDescriptor, error) {
	video, err := r.client.GetVideoContext(ctx, ref)
	if err != nil {
		return nil, &domain.ResolutionError{Scope: "item", Reference: ref, Err: err}
	}
	return &domain.ItemDescriptor{Title: video.Title, SourceReference: video.ID}, nil
}

// BestStream picks the highest-resolution format that carries both audio and video
func (r *YouTubeResolver) BestStream(ctx context.Context, item domain.ItemDescriptor) (domain.StreamHandle, error) {
	video, err := r.client.GetVideoContext(ctx, item.SourceReference)
	if err != nil {
		return nil, &domain.ResolutionError{Scope: "stream", Reference: item.SourceReference, Err: err}
	}

	format := bestProgressiveFormat(video.Formats)
	if format == nil {
		return nil, domain.ErrNoStreamAvailable
	}

	r.logger.Debug("Selected stream",
		zap.String("video_id", video.ID),
		zap.Int("itag", format.ItagNo),
		zap.String("mime_type", format.MimeType),
		zap.Int("height", format.Height))

	return &youtubeStream{client: r.client, video: video, format: format}, nil
}

// bestProgressiveFormat prefers mp4, then height, then bitrate
func bestProgressiveFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 || f.Height == 0 {
			continue
		}
		if best == nil || betterFormat(f, best) {
			best = f
		}
	}
	return best
}

func betterFormat(a, b *youtube.Format) bool {
	aMP4, bMP4 := isMP4(a), isMP4(b)
	if aMP4 != bMP4 {
		return aMP4
	}
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	return a.Bitrate > b.Bitrate
}

func isMP4(f *youtube.Format) bool {
	return strings.HasPrefix(f.MimeType, "video/mp4")
}

func isPlaylistReference(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Query().Get("list") != ""
}

type youtubeStream struct {
	client youtubeAPI
	video  *youtube.Video
	format *youtube.Format
}

func (s *youtubeStream) Size() int64 {
	return s.format.ContentLength
}

// Transfer streams the format into destPath, replacing any existing file
func (s *youtubeStream) Transfer(ctx context.Context, destPath string) error {
	stream, _, err := s.client.GetStreamContext(ctx, s.video, s.format)
	if err != nil {
		return &domain.TransferError{Path: destPath, Err: fmt.Errorf("failed to get stream: %w", err)}
	}
	defer stream.Close()

	file, err := os.Create(destPath)
	if err != nil {
		return &domain.TransferError{Path: destPath, Err: err}
	}

	if _, err := io.Copy(file, stream); err != nil {
		file.Close()
		return &domain.TransferError{Path: destPath, Err: err}
	}
	if err := file.Close(); err != nil {
		return &domain.TransferError{Path: destPath, Err: err}
	}
	return nil
}
