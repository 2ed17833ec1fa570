package wire

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio/gpiostream"

	"github.com/coreman2200/clockless/internal/timing"
)

// StreamPin is a gpiostream.PinOut that taps the waveform instead of
// driving hardware. Whatever a stream-capable backend emits lands on
// the attached Recorder as captured symbols.
type StreamPin struct {
	N    string
	Num  int
	Rec  *Recorder
	Spec timing.Spec
}

func (p *StreamPin) String() string   { return p.N }
func (p *StreamPin) Name() string     { return p.N }
func (p *StreamPin) Number() int      { return p.Num }
func (p *StreamPin) Function() string { return "Out" }
func (p *StreamPin) Halt() error      { return nil }

// StreamOut rasterizes the stream back into duration pairs.
func (p *StreamPin) StreamOut(s gpiostream.Stream) error {
	runs, err := streamRuns(s)
	if err != nil {
		return err
	}
	p.Rec.Send(RunsToSymbols(runs, p.Spec))
	return nil
}

func streamRuns(s gpiostream.Stream) ([]Run, error) {
	switch x := s.(type) {
	case *gpiostream.EdgeStream:
		period := x.Freq.Period()
		runs := make([]Run, 0, len(x.Edges))
		high := true
		for _, e := range x.Edges {
			runs = append(runs, Run{High: high, D: time.Duration(e) * period})
			high = !high
		}
		return runs, nil
	case *gpiostream.BitStream:
		period := x.Freq.Period()
		runs := make([]Run, 0, 64)
		for _, b := range x.Bits {
			for i := 0; i < 8; i++ {
				var set bool
				if x.LSBF {
					set = b&(1<<uint(i)) != 0
				} else {
					set = b&(0x80>>uint(i)) != 0
				}
				runs = append(runs, Run{High: set, D: period})
			}
		}
		return runs, nil
	default:
		return nil, fmt.Errorf("wire: unsupported stream type %T", s)
	}
}

var _ gpiostream.PinOut = &StreamPin{}
