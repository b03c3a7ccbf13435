package main

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strings"
)

const (
	sanitizerBufSize = 32768
	doubleDanda      = '॥'
	danda            = '।'
)

// SanitizedRuneReader cleans up scraped Odia text while it is read: Windows
// line endings, byte order marks and zero width spaces are dropped, runs of
// blank lines and spaces collapse, and lines are trimmed. Text is processed
// in newline-aligned buffers on a separate goroutine.
type SanitizedRuneReader struct {
	bufSize         int
	lastRune        rune
	whitespaceRegex *regexp.Regexp
	reader          *bufio.Reader
	accumulator     []rune
	currBuffer      *bytes.Buffer
	moreBuffers     chan *bytes.Buffer
}

func (runeReader *SanitizedRuneReader) push(r rune) {
	runeReader.accumulator = append(runeReader.accumulator, r)
	runeReader.lastRune = r
}

func (runeReader *SanitizedRuneReader) replaceLast(r rune) {
	runeReader.accumulator[len(runeReader.accumulator)-1] = r
	runeReader.lastRune = r
}

// nextBuffer accumulates runes until the buffer is full and a line ends, or
// the input is exhausted. It returns nil once there is nothing left.
func (runeReader *SanitizedRuneReader) nextBuffer() *bytes.Buffer {
	runeReader.accumulator = runeReader.accumulator[:0]
	for {
		acc := runeReader.accumulator
		if len(acc) >= runeReader.bufSize && acc[len(acc)-1] == '\n' {
			break
		}
		r, size, _ := runeReader.reader.ReadRune()
		if size == 0 {
			if len(acc) == 0 {
				return nil
			}
			break
		}
		switch {
		case r == '\r', r == '\uFEFF', r == '\u200B':
			// Dropped.
		case r == '\n' && runeReader.lastRune == '\n':
			// Drop additional newlines.
		case r == 'n' && runeReader.lastRune == '\\' && len(acc) > 0:
			// Replace escaped `\n` with `\n`.
			runeReader.replaceLast('\n')
		case r == ':' && runeReader.lastRune == ' ' && len(acc) > 0:
			// Strip spaces in front of colons.
			runeReader.replaceLast(':')
		case r == '\t':
			runeReader.push(' ')
		case r == doubleDanda:
			runeReader.push(danda)
			runeReader.push(danda)
		default:
			runeReader.push(r)
		}
	}
	lines := strings.Split(string(runeReader.accumulator), "\n")
	for lineIdx := range lines {
		line := lines[lineIdx]
		line = runeReader.whitespaceRegex.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		lines[lineIdx] = line
	}
	return bytes.NewBufferString(strings.Join(lines, "\n"))
}

func (runeReader *SanitizedRuneReader) advance() bool {
	newBuffer, ok := <-runeReader.moreBuffers
	if !ok {
		runeReader.currBuffer = nil
		return false
	}
	runeReader.currBuffer = newBuffer
	return true
}

func (runeReader *SanitizedRuneReader) ReadRune() (r rune, size int,
	err error) {
	for runeReader.currBuffer != nil {
		if r, size, err = runeReader.currBuffer.ReadRune(); err == nil {
			return r, size, nil
		}
		runeReader.advance()
	}
	return 0, 0, io.EOF
}

func (runeReader *SanitizedRuneReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for runeReader.currBuffer != nil {
		if n, _ := runeReader.currBuffer.Read(p); n > 0 {
			return n, nil
		}
		runeReader.advance()
	}
	return 0, io.EOF
}

func CreateTextSanitizer(handle io.Reader) *SanitizedRuneReader {
	sanitizer := &SanitizedRuneReader{
		bufSize:         sanitizerBufSize,
		whitespaceRegex: regexp.MustCompile("[[:space:]]+"),
		reader:          bufio.NewReader(handle),
		accumulator:     make([]rune, 0, sanitizerBufSize+1),
		moreBuffers:     make(chan *bytes.Buffer, 1),
	}
	sanitizer.currBuffer = sanitizer.nextBuffer()
	go func() {
		for {
			if newBuffer := sanitizer.nextBuffer(); newBuffer == nil {
				close(sanitizer.moreBuffers)
				break
			} else {
				sanitizer.moreBuffers <- newBuffer
			}
		}
	}()
	return sanitizer
}

func SanitizeText(text string) string {
	reader := CreateTextSanitizer(bytes.NewBufferString(text))
	var sb strings.Builder
	io.Copy(&sb, reader)
	return sb.String()
}
