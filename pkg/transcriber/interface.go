package transcriber

import "github.com/petrzlen/callchain-golang/pkg/models"

type Transcriber interface {
	Transcribe(audio models.EncodedAudio, model string, language string, temperature float32) (result string, err error)
}
