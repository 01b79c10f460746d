package adapter

import (
	"context"
	"path/filepath"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// Speech recognizes recorded user speech
type Speech interface {
	// Recognize returns the finalized transcript segments of the audio, in order
	Recognize(ctx context.Context, audio []byte, fileName string) ([]string, error)
	Close() error
}

type speechClient struct {
	client       *speech.Client
	languageCode string
}

// SpeechOption is a functional option for the speech client
type SpeechOption func(*speechClient)

// WithLanguageCode sets the BCP-47 recognition language
func WithLanguageCode(code string) SpeechOption {
	return func(s *speechClient) {
		if code != "" {
			s.languageCode = code
		}
	}
}

// NewSpeech creates a Google Cloud Speech-to-Text client
func NewSpeech(ctx context.Context, clientOpts []option.ClientOption, opts ...SpeechOption) (Speech, error) {
	client, err := speech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create speech client")
	}

	s := &speechClient{
		client:       client,
		languageCode: "en-US",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *speechClient) Close() error {
	return s.client.Close()
}

func (s *speechClient) Recognize(ctx context.Context, audio []byte, fileName string) ([]string, error) {
	if len(audio) == 0 {
		return nil, nil
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               s.languageCode,
			EnableAutomaticPunctuation: true,
			Encoding:                   SpeechEncoding(fileName),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := s.client.Recognize(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to recognize speech", goerr.V("file", fileName))
	}

	var segments []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			segments = append(segments, text)
		}
	}
	return segments, nil
}

// SpeechEncoding infers the audio encoding from a file name. Unknown
// extensions are left unspecified so the API can read the header.
func SpeechEncoding(fileName string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".mp3":
		return speechpb.RecognitionConfig_MP3
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
