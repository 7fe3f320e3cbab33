package natsclient

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	crlf = "\r\n"

	// defaultBufSize is the size of the buffered reader and writer wrapping
	// the transport. Control lines longer than the reader buffer are a
	// protocol violation.
	defaultBufSize = 32768
)

// opType identifies an inbound protocol operation.
type opType int

const (
	opInfo opType = iota
	opMsg
	opHMsg
	opPing
	opPong
	opOK
	opErr
)

// serverOp is a single operation parsed from one control line. Payload
// bytes of MSG and HMSG operations are not part of the control line and
// are read separately.
type serverOp struct {
	Type opType

	// MSG and HMSG arguments.
	Subject string
	Reply   string
	SID     uint64

	// Size is the payload byte count. For HMSG it is the total size,
	// headers included.
	Size int

	// HeaderSize is the header byte count of an HMSG operation.
	HeaderSize int

	// Arg carries the raw JSON of an INFO line or the message of a -ERR
	// line, with the surrounding quotes removed.
	Arg string
}

// readControlLine reads one CRLF-terminated protocol line, without the
// terminator. Lines exceeding the reader's buffer are rejected.
func readControlLine(r *bufio.Reader) (string, error) {
	slice, err := r.ReadSlice('\n')
	if err != nil {
		if err == bufio.ErrBufferFull {
			return "", fmt.Errorf("control line exceeds %d bytes: %w", r.Size(), ErrProtocolError)
		}
		return "", err
	}
	return strings.TrimRight(string(slice), "\r\n"), nil
}

// parseOp tokenizes one control line: the leading verb selects a fixed
// per-verb argument grammar. Verbs are case-insensitive.
func parseOp(line string) (serverOp, error) {
	var op serverOp

	verb := line
	rest := ""
	if idx := strings.IndexAny(line, " \t"); idx >= 0 {
		verb = line[:idx]
		rest = strings.TrimLeft(line[idx+1:], " \t")
	}

	switch strings.ToUpper(verb) {
	case "INFO":
		op.Type = opInfo
		op.Arg = rest

	case "MSG":
		op.Type = opMsg
		return op, parseMsgArgs(&op, rest)

	case "HMSG":
		op.Type = opHMsg
		return op, parseHMsgArgs(&op, rest)

	case "PING":
		op.Type = opPing

	case "PONG":
		op.Type = opPong

	case "+OK":
		op.Type = opOK

	case "-ERR":
		op.Type = opErr
		op.Arg = strings.Trim(rest, "'")

	default:
		return op, fmt.Errorf("unknown protocol operation %q: %w", verb, ErrProtocolError)
	}

	return op, nil
}

// parseMsgArgs parses "<subject> <sid> [reply-to] <#bytes>".
func parseMsgArgs(op *serverOp, rest string) error {
	args := strings.Fields(rest)

	switch len(args) {
	case 3:
		op.Subject, op.Reply = args[0], ""
	case 4:
		op.Subject, op.Reply = args[0], args[2]
	default:
		return fmt.Errorf("malformed MSG arguments %q: %w", rest, ErrProtocolError)
	}

	sid, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("malformed MSG sid %q: %w", args[1], ErrProtocolError)
	}
	op.SID = sid

	size, err := strconv.Atoi(args[len(args)-1])
	if err != nil || size < 0 {
		return fmt.Errorf("malformed MSG size %q: %w", args[len(args)-1], ErrProtocolError)
	}
	op.Size = size

	return nil
}

// parseHMsgArgs parses "<subject> <sid> [reply-to] <#header-bytes> <#total-bytes>".
func parseHMsgArgs(op *serverOp, rest string) error {
	args := strings.Fields(rest)

	switch len(args) {
	case 4:
		op.Subject, op.Reply = args[0], ""
	case 5:
		op.Subject, op.Reply = args[0], args[2]
	default:
		return fmt.Errorf("malformed HMSG arguments %q: %w", rest, ErrProtocolError)
	}

	sid, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("malformed HMSG sid %q: %w", args[1], ErrProtocolError)
	}
	op.SID = sid

	headerSize, err := strconv.Atoi(args[len(args)-2])
	if err != nil || headerSize < 0 {
		return fmt.Errorf("malformed HMSG header size %q: %w", args[len(args)-2], ErrProtocolError)
	}
	op.HeaderSize = headerSize

	size, err := strconv.Atoi(args[len(args)-1])
	if err != nil || size < headerSize {
		return fmt.Errorf("malformed HMSG total size %q: %w", args[len(args)-1], ErrProtocolError)
	}
	op.Size = size

	return nil
}

// readPayload reads exactly size payload bytes plus the trailing CRLF,
// which is consumed but not re-parsed. A terminator that is not CRLF means
// the declared size does not match the frame.
func readPayload(r *bufio.Reader, size int) ([]byte, error) {
	buf := make([]byte, size+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if buf[size] != '\r' || buf[size+1] != '\n' {
		return nil, ErrBadPayloadSize
	}
	return buf[:size:size], nil
}

// skipPayload discards exactly size payload bytes plus the trailing CRLF.
func skipPayload(r *bufio.Reader, size int) error {
	if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
		return err
	}
	var term [2]byte
	if _, err := io.ReadFull(r, term[:]); err != nil {
		return err
	}
	if term[0] != '\r' || term[1] != '\n' {
		return ErrBadPayloadSize
	}
	return nil
}

// validSubject reports whether a subject is usable on the wire. Whitespace
// would corrupt framing and an empty subject is meaningless.
func validSubject(subject string) bool {
	return subject != "" && !strings.ContainsAny(subject, " \t\r\n")
}

// Outbound frame encoders. They write onto the connection's buffered
// writer under the writer gate; bufio.Writer is sticky on error, so
// checking the final write suffices.

// writeConnectFrame writes "CONNECT <json>".
func writeConnectFrame(w *bufio.Writer, payload []byte) error {
	w.WriteString("CONNECT ")
	w.Write(payload)
	_, err := w.WriteString(crlf)
	return err
}

// writePubFrame writes "PUB <subject> [reply-to] <#bytes>" and the payload.
func writePubFrame(w *bufio.Writer, subject, reply string, payload []byte) error {
	w.WriteString("PUB ")
	w.WriteString(subject)
	w.WriteByte(' ')
	if reply != "" {
		w.WriteString(reply)
		w.WriteByte(' ')
	}
	var scratch [20]byte
	w.Write(strconv.AppendInt(scratch[:0], int64(len(payload)), 10))
	w.WriteString(crlf)
	w.Write(payload)
	_, err := w.WriteString(crlf)
	return err
}

// writeSubFrame writes "SUB <subject> [queue-group] <sid>".
func writeSubFrame(w *bufio.Writer, subject, queue string, sid uint64) error {
	w.WriteString("SUB ")
	w.WriteString(subject)
	w.WriteByte(' ')
	if queue != "" {
		w.WriteString(queue)
		w.WriteByte(' ')
	}
	var scratch [20]byte
	w.Write(strconv.AppendUint(scratch[:0], sid, 10))
	_, err := w.WriteString(crlf)
	return err
}

// writeUnsubFrame writes "UNSUB <sid> [max-msgs]". A zero max is omitted.
func writeUnsubFrame(w *bufio.Writer, sid uint64, max int) error {
	var scratch [20]byte
	w.WriteString("UNSUB ")
	w.Write(strconv.AppendUint(scratch[:0], sid, 10))
	if max > 0 {
		w.WriteByte(' ')
		w.Write(strconv.AppendInt(scratch[:0], int64(max), 10))
	}
	_, err := w.WriteString(crlf)
	return err
}

// writePingFrame writes "PING".
func writePingFrame(w *bufio.Writer) error {
	_, err := w.WriteString("PING" + crlf)
	return err
}

// writePongFrame writes "PONG".
func writePongFrame(w *bufio.Writer) error {
	_, err := w.WriteString("PONG" + crlf)
	return err
}
