package parser

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/heathj/statetoggle/parser/webidl"
)

// Public identifier prefixes that put a document in quirks mode, lowercased.
// https://html.spec.whatwg.org/#the-initial-insertion-mode
var quirkyPublicIdentifiers = []string{
	"+//silmaril//dtd html pro v0r11 19970101//",
	"-//as//dtd html 3.0 aswedit + extensions//",
	"-//advasoft ltd//dtd html 3.0 aswedit + extensions//",
	"-//ietf//dtd html 2.0 level 1//",
	"-//ietf//dtd html 2.0 level 2//",
	"-//ietf//dtd html 2.0 strict level 1//",
	"-//ietf//dtd html 2.0 strict level 2//",
	"-//ietf//dtd html 2.0 strict//",
	"-//ietf//dtd html 2.0//",
	"-//ietf//dtd html 2.1e//",
	"-//ietf//dtd html 3.0//",
	"-//ietf//dtd html 3.2 final//",
	"-//ietf//dtd html 3.2//",
	"-//ietf//dtd html 3//",
	"-//ietf//dtd html level 0//",
	"-//ietf//dtd html level 1//",
	"-//ietf//dtd html level 2//",
	"-//ietf//dtd html level 3//",
	"-//ietf//dtd html strict level 0//",
	"-//ietf//dtd html strict level 1//",
	"-//ietf//dtd html strict level 2//",
	"-//ietf//dtd html strict level 3//",
	"-//ietf//dtd html strict//",
	"-//ietf//dtd html//",
	"-//metrius//dtd metrius presentational//",
	"-//microsoft//dtd internet explorer 2.0 html strict//",
	"-//microsoft//dtd internet explorer 2.0 html//",
	"-//microsoft//dtd internet explorer 2.0 tables//",
	"-//microsoft//dtd internet explorer 3.0 html strict//",
	"-//microsoft//dtd internet explorer 3.0 html//",
	"-//microsoft//dtd internet explorer 3.0 tables//",
	"-//netscape comm. corp.//dtd html//",
	"-//netscape comm. corp.//dtd strict html//",
	"-//o'reilly and associates//dtd html 2.0//",
	"-//o'reilly and associates//dtd html extended 1.0//",
	"-//o'reilly and associates//dtd html extended relaxed 1.0//",
	"-//sq//dtd html 2.0 hotmetal + extensions//",
	"-//softquad software//dtd hotmetal pro 6.0::19990601::extensions to html 4.0//",
	"-//softquad//dtd hotmetal pro 4.0::19971010::extensions to html 4.0//",
	"-//spyglass//dtd html 2.0 extended//",
	"-//sun microsystems corp.//dtd hotjava html//",
	"-//sun microsystems corp.//dtd hotjava strict html//",
	"-//w3c//dtd html 3 1995-03-24//",
	"-//w3c//dtd html 3.2 draft//",
	"-//w3c//dtd html 3.2 final//",
	"-//w3c//dtd html 3.2//",
	"-//w3c//dtd html 3.2s draft//",
	"-//w3c//dtd html 4.0 frameset//",
	"-//w3c//dtd html 4.0 transitional//",
	"-//w3c//dtd html experimental 19960712//",
	"-//w3c//dtd html experimental 970421//",
	"-//w3c//dtd w3 html//",
	"-//w3o//dtd w3 html 3.0//",
	"-//webtechs//dtd mozilla html 2.0//",
	"-//webtechs//dtd mozilla html//",
}

const (
	html401Frameset     = "-//w3c//dtd html 4.01 frameset//"
	html401Transitional = "-//w3c//dtd html 4.01 transitional//"
	ibmXHTMLSystem      = "http://www.ibm.com/data/dtd/v11/ibmxhtml1-transitional.dtd"
)

type doctype struct {
	name, public, system string
	hasSystem            bool
}

func doctypeOf(n *html.Node) doctype {
	dt := doctype{name: n.Data}
	for _, a := range n.Attr {
		switch a.Key {
		case "public":
			dt.public = a.Val
		case "system":
			dt.system = a.Val
			dt.hasSystem = true
		}
	}
	return dt
}

func (dt doctype) forceQuirks() bool {
	if dt.name != "html" {
		return true
	}
	pub := webidl.ASCIILowercase(dt.public)
	switch pub {
	case "-//w3o//dtd w3 html strict 3.0//en//", "-/w3c/dtd html 4.0 transitional/en", "html":
		return true
	}
	if webidl.ASCIILowercase(dt.system) == ibmXHTMLSystem {
		return true
	}
	for _, prefix := range quirkyPublicIdentifiers {
		if strings.HasPrefix(pub, prefix) {
			return true
		}
	}
	return !dt.hasSystem && (strings.HasPrefix(pub, html401Frameset) || strings.HasPrefix(pub, html401Transitional))
}

func (dt doctype) limitedQuirks() bool {
	pub := webidl.ASCIILowercase(dt.public)
	if strings.HasPrefix(pub, "-//w3c//dtd xhtml 1.0 frameset//") ||
		strings.HasPrefix(pub, "-//w3c//dtd xhtml 1.0 transitional//") {
		return true
	}
	return dt.hasSystem && (strings.HasPrefix(pub, html401Frameset) || strings.HasPrefix(pub, html401Transitional))
}
