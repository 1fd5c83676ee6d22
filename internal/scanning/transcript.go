package scanning

import (
	"fmt"
	"strings"
)

// transcribePrompt asks a vision model to behave like a plain OCR engine
const transcribePrompt = `You are an OCR engine reading a photographed or scanned retail receipt.
Transcribe every line of printed text exactly as it appears, top to bottom.

Rules:
- Treat the receipt as a single uniform block of text
- Output one printed line per output line, keeping item names and their prices on the same line
- Copy numbers, decimal points, thousands separators and currency symbols exactly
- Do not summarize, translate, correct spelling or add commentary
- Do not use markdown code blocks
- If there is no readable text, return an empty response`

// promptForMode adjusts the transcription prompt for a layout mode
func promptForMode(mode PageSegMode) string {
	if mode == SingleBlock {
		return transcribePrompt
	}
	return fmt.Sprintf("%s\n- Layout hint: tesseract page segmentation mode %d", transcribePrompt, mode)
}

// cleanTranscript strips markdown code fences some models wrap around their answer
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, which may carry a language tag
	if i := strings.Index(text, "\n"); i >= 0 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
