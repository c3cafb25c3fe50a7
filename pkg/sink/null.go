package sink

import (
	"context"

	"github.com/rs/zerolog"
)

// NullDevice accepts any stream setup and discards everything fed to it,
// logging each packet at trace level and lifecycle events at debug, info or
// error level. Used as the default sink in tests and by
// cmd/airplay2d when no real sink is wired.
type NullDevice[P any] struct {
	Log zerolog.Logger
}

// Create implements Device.
func (d NullDevice[P]) Create(_ context.Context, id uint64, params P, _ ChannelHandle) (*NullStream, error) {
	d.Log.Info().Uint64("streamID", id).Interface("params", params).Msg("created null stream")
	return &NullStream{log: d.Log}, nil
}

// NullStream discards all packets fed to it.
type NullStream struct {
	log zerolog.Logger
}

// OnData implements Stream.
func (s *NullStream) OnData(content any) {
	s.log.Trace().Interface("content", content).Msg("null stream fed data")
}

// OnOK implements Stream.
func (s *NullStream) OnOK() {
	s.log.Info().Msg("null stream finished successfully")
}

// OnErr implements Stream.
func (s *NullStream) OnErr(err error) {
	s.log.Error().Err(err).Msg("null stream finished with an error")
}

// GetVolume implements AudioDevice.
func (s *NullStream) GetVolume() float32 { return 0 }

// SetVolume implements AudioDevice.
func (s *NullStream) SetVolume(value float32) {
	s.log.Debug().Float32("volume", value).Msg("volume changed for null stream")
}
