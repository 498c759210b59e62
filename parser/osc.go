package parser

import (
	"encoding/base64"
	"log"
	"strings"
)

func (p *Parser) feedOSC(b byte) {
	if p.sawESC {
		if b == '\\' {
			p.dispatchOSC()
			p.state = StateGround
			return
		}
		p.oscBuf = append(p.oscBuf, 0x1B, b)
		p.sawESC = false
		return
	}
	switch b {
	case 0x1B:
		p.sawESC = true
	case 0x07:
		p.dispatchOSC()
		p.state = StateGround
	default:
		p.oscBuf = append(p.oscBuf, b)
	}
}

func (p *Parser) feedDCS(b byte) {
	if p.sawESC {
		if b == '\\' {
			// DCS strings are accumulated and discarded: no command in
			// this design acts on DCS content.
			p.state = StateGround
			return
		}
		p.dcsBuf = append(p.dcsBuf, 0x1B, b)
		p.sawESC = false
		return
	}
	switch b {
	case 0x1B:
		p.sawESC = true
	default:
		p.dcsBuf = append(p.dcsBuf, b)
	}
}

func (p *Parser) dispatchOSC() {
	fields := strings.SplitN(string(p.oscBuf), ";", 3)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "52":
		p.handleOSC52(fields)
	case "10":
		if len(fields) >= 2 && fields[1] == "?" {
			p.coll.WriteToPty([]byte("\x1b]10;rgb:0/0/0\x1b\\"))
		}
	case "11":
		if len(fields) >= 2 && fields[1] == "?" {
			// The reply's OSC command number is literally "10" for both
			// the foreground and background queries; this mirrors the
			// teacher's wire format and is preserved as the contract.
			p.coll.WriteToPty([]byte("\x1b]10;rgb:f/f/f\x1b\\"))
		}
	case "7":
		p.handleOSC7(fields)
	default:
		log.Printf("parser: unhandled OSC command %q", fields[0])
	}
}

func (p *Parser) handleOSC52(fields []string) {
	if len(fields) < 3 {
		return
	}
	payload := fields[2]
	if payload == "?" {
		p.coll.RequestPaste()
		return
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		log.Printf("parser: OSC 52 payload is not valid base64: %v", err)
		return
	}
	p.coll.Copy(payload)
}

func (p *Parser) handleOSC7(fields []string) {
	if len(fields) < 2 {
		return
	}
	path := fields[1]
	if idx := strings.Index(path, "://"); idx != -1 {
		rest := path[idx+3:]
		if slash := strings.IndexByte(rest, '/'); slash != -1 {
			path = rest[slash:]
		}
	}
	p.workingDirectory = path
}
