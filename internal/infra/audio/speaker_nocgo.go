//go:build !((linux && cgo) || windows || darwin)

package audio

// Audio output requires cgo for the native sound libraries on this platform.
func newSpeaker(Config) (Handle, error) {
	return nil, ErrAudioUnavailable
}
