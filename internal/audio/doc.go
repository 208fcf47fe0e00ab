// Package audio plays raw PCM through the system audio device using
// oto/v3. Playback blocks until the buffer has drained or Stop is called.
package audio
