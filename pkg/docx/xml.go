package docx

import "github.com/beevik/etree"

// Child element order required by the WordprocessingML schema; Word refuses
// files whose property elements are out of sequence.
var (
	tcOrder = []string{"tcPr"}
	pOrder  = []string{"pPr"}
	rOrder  = []string{"rPr"}

	tcPrOrder = []string{
		"cnfStyle", "tcW", "gridSpan", "hMerge", "vMerge", "tcBorders", "shd",
		"noWrap", "tcMar", "textDirection", "tcFitText", "vAlign", "hideMark",
	}
	tcBordersOrder = []string{
		"top", "start", "left", "bottom", "end", "right", "insideH", "insideV", "tl2br", "tr2bl",
	}
	pPrOrder = []string{
		"pStyle", "keepNext", "keepLines", "pageBreakBefore", "framePr", "widowControl",
		"numPr", "suppressLineNumbers", "pBdr", "shd", "tabs", "suppressAutoHyphens",
		"kinsoku", "wordWrap", "overflowPunct", "topLinePunct", "autoSpaceDE", "autoSpaceDN",
		"bidi", "adjustRightInd", "snapToGrid", "spacing", "ind", "contextualSpacing",
		"mirrorIndents", "suppressOverlap", "jc", "textDirection", "textAlignment",
		"textboxTightWrap", "outlineLvl", "divId", "cnfStyle", "rPr", "sectPr", "pPrChange",
	}
	rPrOrder = []string{
		"rStyle", "rFonts", "b", "bCs", "i", "iCs", "caps", "smallCaps", "strike", "dstrike",
		"outline", "shadow", "emboss", "imprint", "noProof", "snapToGrid", "vanish", "webHidden",
		"color", "spacing", "w", "kern", "position", "sz", "szCs", "highlight", "u", "effect",
		"bdr", "shd", "fitText", "vertAlign", "rtl", "cs", "em", "lang", "eastAsianLayout",
		"specVanish", "oMath",
	}
)

// is reports whether el is the WordprocessingML element w:<tag>.
func is(el *etree.Element, tag string) bool {
	return el.Space == "w" && el.Tag == tag
}

func child(parent *etree.Element, tag string) *etree.Element {
	for _, el := range parent.ChildElements() {
		if is(el, tag) {
			return el
		}
	}
	return nil
}

func children(parent *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, el := range parent.ChildElements() {
		if is(el, tag) {
			out = append(out, el)
		}
	}
	return out
}

func rank(order []string, tag string) int {
	for i, t := range order {
		if t == tag {
			return i
		}
	}
	return len(order)
}

// ensure returns the w:<tag> child of parent, creating it at its schema position.
func ensure(parent *etree.Element, tag string, order []string) *etree.Element {
	if el := child(parent, tag); el != nil {
		return el
	}

	el := etree.NewElement("w:" + tag)
	r := rank(order, tag)
	for _, sib := range parent.ChildElements() {
		if sib.Space == "w" && rank(order, sib.Tag) > r {
			parent.InsertChildAt(sib.Index(), el)
			return el
		}
	}
	parent.AddChild(el)
	return el
}
