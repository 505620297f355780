// Package ensemble runs a page image through a fixed menu of recognition
// configurations, measures engine confidence, and picks the most plausible
// output.
package ensemble

import "github.com/platinummonkey/ocrpick/internal/ocr"

// Method identifies one recognition configuration.
type Method string

const (
	MethodDefault          Method = "default"
	MethodAutoSegmentation Method = "auto_segmentation"
	MethodSparseText       Method = "sparse_text"
	MethodLSTMEngine       Method = "lstm_engine"
	MethodNumbersOnly      Method = "numbers_only"
	MethodLettersOnly      Method = "letters_only"
	MethodMixedContent     Method = "mixed_content"

	// MethodNone marks a page where no configuration produced usable text.
	MethodNone Method = "none"
)

// Character whitelists for the restricted configurations.
const (
	digitsAndDates = "0123456789/.-: "
	letters        = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz "
	mixedContent   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz.,:;!?()/-[] "
)

// MenuEntry pairs a method with the engine parameters it runs under.
type MenuEntry struct {
	Method      Method
	Description string
	Params      ocr.Params
}

// DefaultMenu returns the standard recognition menu. Its order is the
// tie-break order used by the Selector.
func DefaultMenu() []MenuEntry {
	return []MenuEntry{
		{
			Method:      MethodDefault,
			Description: "engine default settings",
		},
		{
			Method:      MethodAutoSegmentation,
			Description: "fully automatic page segmentation",
			Params:      ocr.Params{PageSegMode: ocr.PSMAuto},
		},
		{
			Method:      MethodSparseText,
			Description: "sparse text, find as much text as possible in no particular order",
			Params:      ocr.Params{PageSegMode: ocr.PSMSparseText},
		},
		{
			Method:      MethodLSTMEngine,
			Description: "LSTM neural network engine only, single uniform block",
			Params:      ocr.Params{EngineMode: ocr.OEMLSTM, PageSegMode: ocr.PSMSingleBlock},
		},
		{
			Method:      MethodNumbersOnly,
			Description: "single line restricted to digits and date/time punctuation",
			Params:      ocr.Params{PageSegMode: ocr.PSMSingleLine, Whitelist: digitsAndDates},
		},
		{
			Method:      MethodLettersOnly,
			Description: "single block restricted to letters",
			Params:      ocr.Params{PageSegMode: ocr.PSMSingleBlock, Whitelist: letters},
		},
		{
			Method:      MethodMixedContent,
			Description: "single block restricted to alphanumerics and common punctuation",
			Params:      ocr.Params{PageSegMode: ocr.PSMSingleBlock, Whitelist: mixedContent},
		},
	}
}
