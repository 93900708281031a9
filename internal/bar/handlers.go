package bar

import (
	"github.com/bsapcie/exerciser/internal/config"
	"github.com/bsapcie/exerciser/internal/dmabuffer"
	"github.com/bsapcie/exerciser/internal/msixtable"
	"github.com/bsapcie/exerciser/internal/regs"
	"github.com/bsapcie/exerciser/internal/tlp"
)

// ProcessRegisterFile implements the BAR0 RegisterFile handler, §4.2: one
// read yields one completion DWORD; one write commits enabled bytes.
func ProcessRegisterFile(r *regs.RegisterFile, beats []*tlp.RequestBeat, cfg config.Config) []*tlp.CompletionBeat {
	first := beats[0]
	offset := uint32(first.Adr - cfg.BAR0Base)

	if first.We {
		for _, b := range beats {
			o := uint32(b.Adr - cfg.BAR0Base)
			r.Write(o, b.Dat, b.BE)
		}
		return nil
	}

	val := r.Read(offset)
	return []*tlp.CompletionBeat{{
		ReqID: first.ReqID,
		Tag:   first.Tag,
		Dat:   val,
		End:   true,
		First: true,
		Last:  true,
	}}
}

// ProcessDMABuffer implements the BAR1 DMABuffer handler, §4.2: writes
// commit dat into the buffer honoring first/last BE and per-beat BE; reads
// are split into one or more completions respecting max_payload_size.
func ProcessDMABuffer(buf *dmabuffer.DMABuffer, beats []*tlp.RequestBeat, cfg config.Config) []*tlp.CompletionBeat {
	first := beats[0]
	offset := uint32(first.Adr - cfg.BAR1Base)

	if first.We {
		last := len(beats) - 1
		for i, b := range beats {
			be := uint8(0xF)
			switch {
			case i == 0 && i == last:
				be = first.FirstBE & first.LastBE
			case i == 0:
				be = first.FirstBE
			case i == last:
				be = beats[last].LastBE
			}
			buf.WriteDWordA(offset+uint32(i*4), b.Dat, be&b.BE)
		}
		return nil
	}

	lenDW := first.LenDW()
	data, ok := buf.ReadRange(offset, uint32(lenDW*4))
	if !ok {
		return []*tlp.CompletionBeat{{ReqID: first.ReqID, Tag: first.Tag, Err: true, End: true, First: true, Last: true}}
	}

	mps := int(cfg.MaxPayloadSize)
	if mps <= 0 {
		mps = len(data)
	}
	var out []*tlp.CompletionBeat
	for o := 0; o < len(data); o += mps {
		end := o+mps > len(data)
		chunk := data[o:min(o+mps, len(data))]
		out = append(out, dwordCompletions(first.ReqID, first.Tag, chunk, end)...)
	}
	if len(out) == 0 {
		out = append(out, &tlp.CompletionBeat{ReqID: first.ReqID, Tag: first.Tag, End: true, First: true, Last: true})
	}
	return out
}

// dwordCompletions turns one chunk of bytes into completion beats, one per
// DWORD, marking End on the final beat of the final chunk.
func dwordCompletions(reqID uint16, tag uint8, chunk []byte, isLastChunk bool) []*tlp.CompletionBeat {
	var out []*tlp.CompletionBeat
	n := len(chunk)
	for i := 0; i < n; i += 4 {
		var dw uint32
		for j := 0; j < 4 && i+j < n; j++ {
			dw |= uint32(chunk[i+j]) << (8 * j)
		}
		isLastBeat := isLastChunk && i+4 >= n
		out = append(out, &tlp.CompletionBeat{
			ReqID: reqID,
			Tag:   tag,
			Dat:   dw,
			End:   isLastBeat,
			First: i == 0,
			Last:  i+4 >= n,
		})
	}
	return out
}

// ProcessMSIXTable implements the BAR2 MSIXTable handler, §4.2.
func ProcessMSIXTable(tbl *msixtable.Table, beats []*tlp.RequestBeat, cfg config.Config) []*tlp.CompletionBeat {
	first := beats[0]
	offset := uint32(first.Adr - cfg.BAR2Base)

	if first.We {
		for _, b := range beats {
			o := uint32(b.Adr - cfg.BAR2Base)
			tbl.Write(o, b.Dat, b.BE)
		}
		return nil
	}

	val := tbl.Read(offset)
	return []*tlp.CompletionBeat{{ReqID: first.ReqID, Tag: first.Tag, Dat: val, End: true, First: true, Last: true}}
}

// ProcessMSIXPBA implements the BAR5 MSIXPBA handler, §4.2: writes are
// silently discarded.
func ProcessMSIXPBA(pba *msixtable.PBA, beats []*tlp.RequestBeat, cfg config.Config) []*tlp.CompletionBeat {
	first := beats[0]
	if first.We {
		return nil
	}
	offset := uint32(first.Adr - cfg.BAR5Base)
	return []*tlp.CompletionBeat{{ReqID: first.ReqID, Tag: first.Tag, Dat: pba.Read(offset), End: true, First: true, Last: true}}
}

// ProcessStub implements the BAR3/4 stub handler, §4.1/§4.2: writes are
// dropped, reads receive one Unsupported-Request completion.
func ProcessStub(beats []*tlp.RequestBeat) []*tlp.CompletionBeat {
	first := beats[0]
	if first.We {
		return nil
	}
	return []*tlp.CompletionBeat{{ReqID: first.ReqID, Tag: first.Tag, Err: true, End: true, First: true, Last: true}}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
