package infrastructure

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

// fakeYouTube implements youtubeAPI in memory
type fakeYouTube struct {
	playlists map[string]*youtube.Playlist
	videos    map[string]*youtube.Video
	payload   string
	streamErr error
}

func (f *fakeYouTube) GetPlaylistContext(ctx context.Context, url string) (*youtube.Playlist, error) {
	if p, ok := f.playlists[url]; ok {
		return p, nil
	}
	return nil, errors.New("playlist not found")
}

func (f *fakeYouTube) GetVideoContext(ctx context.Context, url string) (*youtube.Video, error) {
	if v, ok := f.videos[url]; ok {
		return v, nil
	}
	return nil, errors.New("video unavailable")
}

func (f *fakeYouTube) GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	if f.streamErr != nil {
		return nil, 0, f.streamErr
	}
	return io.NopCloser(strings.NewReader(f.payload)), int64(len(f.payload)), nil
}

func newFakeYouTubeResolver(api *fakeYouTube) *YouTubeResolver {
	return &YouTubeResolver{client: api, logger: zap.NewNop()}
}

const playlistURL = "https://www.youtube.com/playlist?list=PL123"

func TestYouTubeResolver_ResolveCollection(t *testing.T) {
	api := &fakeYouTube{playlists: map[string]*youtube.Playlist{
		playlistURL: {
			Title: "My List!",
			Videos: []*youtube.PlaylistEntry{
				{ID: "aaa", Title: "A"},
				{ID: "bbb", Title: "B 2024"},
			},
		},
	}}
	r := newFakeYouTubeResolver(api)

	meta, err := r.ResolveCollection(context.Background(), playlistURL)
	require.NoError(t, err)
	assert.Equal(t, "My List!", meta.Title)
	assert.Equal(t, []domain.ItemDescriptor{
		{Title: "A", SourceReference: "aaa"},
		{Title: "B 2024", SourceReference: "bbb"},
	}, meta.Items)

	_, err = r.ResolveCollection(context.Background(), "https://www.youtube.com/watch?v=aaa")
	assert.ErrorIs(t, err, domain.ErrNotACollection)

	_, err = r.ResolveCollection(context.Background(), "https://www.youtube.com/playlist?list=GONE")
	var rerr *domain.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "collection", rerr.Scope)
}

func TestYouTubeResolver_ResolveItem(t *testing.T) {
	ref := "https://www.youtube.com/watch?v=aaa"
	api := &fakeYouTube{videos: map[string]*youtube.Video{
		ref: {ID: "aaa", Title: "Solo"},
	}}
	r := newFakeYouTubeResolver(api)

	item, err := r.ResolveItem(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemDescriptor{Title: "Solo", SourceReference: "aaa"}, *item)

	_, err = r.ResolveItem(context.Background(), "https://www.youtube.com/watch?v=zzz")
	assert.Error(t, err)
}

func TestBestProgressiveFormat(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 1, MimeType: `video/webm; codecs="vp9"`, Height: 1080, AudioChannels: 2},
		{ItagNo: 2, MimeType: `video/mp4; codecs="avc1"`, Height: 360, AudioChannels: 2, Bitrate: 500},
		{ItagNo: 3, MimeType: `video/mp4; codecs="avc1"`, Height: 720, AudioChannels: 2, Bitrate: 900},
		{ItagNo: 4, MimeType: `video/mp4; codecs="avc1"`, Height: 1080, AudioChannels: 0},
		{ItagNo: 5, MimeType: `audio/mp4`, AudioChannels: 2},
		{ItagNo: 6, MimeType: `video/mp4; codecs="avc1"`, Height: 720, AudioChannels: 2, Bitrate: 1200},
	}

	best := bestProgressiveFormat(formats)
	require.NotNil(t, best)
	assert.Equal(t, 6, best.ItagNo)

	// webm wins only when there is no mp4
	best = bestProgressiveFormat(formats[:1])
	require.NotNil(t, best)
	assert.Equal(t, 1, best.ItagNo)

	assert.Nil(t, bestProgressiveFormat(youtube.FormatList{formats[3], formats[4]}))
}

func TestYouTubeResolver_BestStreamAndTransfer(t *testing.T) {
	api := &fakeYouTube{
		videos: map[string]*youtube.Video{
			"aaa": {ID: "aaa", Title: "A", Formats: youtube.FormatList{
				{ItagNo: 18, MimeType: "video/mp4", Height: 360, AudioChannels: 2, ContentLength: 3 * 1024 * 1024},
			}},
			"bbb": {ID: "bbb", Title: "B", Formats: youtube.FormatList{
				{ItagNo: 140, MimeType: "audio/mp4", AudioChannels: 2},
			}},
		},
		payload: "video-bytes",
	}
	r := newFakeYouTubeResolver(api)

	stream, err := r.BestStream(context.Background(), domain.ItemDescriptor{Title: "A", SourceReference: "aaa"})
	require.NoError(t, err)
	assert.Equal(t, int64(3*1024*1024), stream.Size())

	dest := filepath.Join(t.TempDir(), "A.mp4")
	require.NoError(t, os.WriteFile(dest, []byte("stale content that is longer"), 0644))
	require.NoError(t, stream.Transfer(context.Background(), dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))

	_, err = r.BestStream(context.Background(), domain.ItemDescriptor{Title: "B", SourceReference: "bbb"})
	assert.ErrorIs(t, err, domain.ErrNoStreamAvailable)

	api.streamErr = errors.New("403 forbidden")
	err = stream.Transfer(context.Background(), dest)
	var terr *domain.TransferError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, err.Error(), "403 forbidden")
}
