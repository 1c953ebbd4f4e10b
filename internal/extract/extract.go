// Package extract derives structured data from raw message text: crypto
// addresses, ticker symbols, URLs, prices, and a coarse sentiment signal.
// Extraction is side-effect free; empty input yields an empty result, never
// an error.
package extract

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Data is the structured information extracted from one message.
type Data struct {
	Addresses Addresses `json:"addresses"`
	Symbols   []string  `json:"symbols,omitempty"`
	URLs      []URL     `json:"urls,omitempty"`
	Prices    []Price   `json:"prices,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	RawText   string    `json:"raw_text,omitempty"`
}

// Addresses groups the on-chain addresses found in a message by chain.
type Addresses struct {
	Ethereum []string `json:"ethereum,omitempty"`
	Solana   []string `json:"solana,omitempty"`
	Bitcoin  []string `json:"bitcoin,omitempty"`
}

// URL is a link found in a message, classified by destination.
type URL struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Kind   string `json:"type"`
}

// Price is a currency amount mentioned in a message.
type Price struct {
	Amount   float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Sentiment values.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// URL classification values.
const (
	URLKindDexTracker = "dex_tracker"
	URLKindExplorer   = "blockchain_explorer"
	URLKindExchange   = "exchange"
	URLKindSocial     = "social_media"
	URLKindUnknown    = "unknown"
)

var (
	ethereumAddressRe = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)
	solanaAddressRe   = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)
	bitcoinAddressRe  = regexp.MustCompile(`(?:bc1|[13])[a-zA-HJ-NP-Z0-9]{25,39}`)
	symbolRe          = regexp.MustCompile(`\b[A-Z]{2,10}\b`)
	urlRe             = regexp.MustCompile(`https?://(?:[-\w.])+(?::\d+)?(?:/(?:[\w/_.])*(?:\?(?:[\w&=%.])*)?(?:#(?:\w*))?)?`)
	priceRe           = regexp.MustCompile(`(?i)\$?(\d+(?:\.\d+)?)\s*(?:USD|USDT|USDC|\$)`)

	cleanURLRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://\S+`),
		regexp.MustCompile(`(?i)www\.\S+`),
		regexp.MustCompile(`(?i)[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}(?:/\S*)?`),
	}
	cleanEmailRe     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	cleanExtensionRe = regexp.MustCompile(`\b\w+\.[a-zA-Z]{2,4}\b`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// Sentiment keyword lists. Matching anchors at word starts so inflected
// forms ("pumping", "dumped") still count while substrings inside other
// words ("up" in "support") do not.
var (
	bullishKeywords = []string{"pump", "moon", "bullish", "buy", "long", "rocket", "up", "rise", "gain"}
	bearishKeywords = []string{"dump", "bear", "bearish", "sell", "short", "crash", "down", "fall", "loss"}
	neutralKeywords = []string{"analysis", "chart", "support", "resistance", "volume", "trading"}

	keywordRes = compileKeywordRes(bullishKeywords, bearishKeywords, neutralKeywords)
)

func compileKeywordRes(lists ...[]string) map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp)
	for _, list := range lists {
		for _, kw := range list {
			res[kw] = regexp.MustCompile(`\b` + kw)
		}
	}
	return res
}

var urlKinds = []struct {
	kind    string
	domains []string
}{
	{URLKindDexTracker, []string{"dexscreener", "dextools", "birdeye"}},
	{URLKindExplorer, []string{"etherscan", "solscan", "blockchain"}},
	{URLKindExchange, []string{"binance", "coinbase", "okx"}},
	{URLKindSocial, []string{"twitter", "telegram", "discord"}},
}

// Extractor derives structured data from message text. The zero value is
// ready to use; an optional symbol Resolver upgrades ticker matching from
// regex heuristics to an authoritative lookup.
type Extractor struct {
	resolver Resolver
	logger   *slog.Logger
}

// Option configures the Extractor.
type Option func(*Extractor)

// WithResolver sets the symbol resolver used before falling back to regex
// matching.
func WithResolver(r Resolver) Option {
	return func(e *Extractor) {
		e.resolver = r
	}
}

// WithLogger sets the logger for resolver failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract derives structured data from text. Empty input returns the zero
// Data. The context is used only for the optional symbol resolver; resolver
// failures degrade to regex matching instead of propagating.
func (e *Extractor) Extract(ctx context.Context, text string) Data {
	if text == "" {
		return Data{}
	}

	d := Data{
		Addresses: Addresses{
			Ethereum: dedupe(ethereumAddressRe.FindAllString(text, -1)),
			Solana:   dedupe(filterSolana(solanaAddressRe.FindAllString(text, -1))),
			Bitcoin:  dedupe(bitcoinAddressRe.FindAllString(text, -1)),
		},
		RawText: stripEmoji(text),
	}

	d.Symbols = e.extractSymbols(ctx, text)

	for _, u := range urlRe.FindAllString(text, -1) {
		domain := extractDomain(u)
		d.URLs = append(d.URLs, URL{
			URL:    u,
			Domain: domain,
			Kind:   classifyDomain(domain),
		})
	}

	for _, m := range priceRe.FindAllStringSubmatch(text, -1) {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		d.Prices = append(d.Prices, Price{Amount: amount, Currency: "USD"})
	}

	d.Keywords, d.Sentiment = analyzeSentiment(text)

	return d
}

// extractSymbols resolves ticker symbols, preferring the resolver and
// degrading to regex matching on cleaned text.
func (e *Extractor) extractSymbols(ctx context.Context, text string) []string {
	if e.resolver != nil {
		symbols, err := e.resolver.Resolve(ctx, text)
		if err != nil {
			e.logger.Debug("symbol resolver failed; falling back to regex matching", "error", err)
		} else if len(symbols) > 0 {
			upper := make([]string, 0, len(symbols))
			for _, s := range symbols {
				upper = append(upper, strings.ToUpper(s))
			}
			return dedupe(upper)
		}
	}

	cleaned := cleanForMatching(text)
	return dedupe(symbolRe.FindAllString(strings.ToUpper(cleaned), -1))
}

// analyzeSentiment counts bullish vs bearish keyword hits and collects every
// matched keyword.
func analyzeSentiment(text string) (keywords []string, sentiment string) {
	lower := strings.ToLower(text)

	var bullish, bearish int
	for _, kw := range bullishKeywords {
		if keywordRes[kw].MatchString(lower) {
			bullish++
			keywords = append(keywords, kw)
		}
	}
	for _, kw := range bearishKeywords {
		if keywordRes[kw].MatchString(lower) {
			bearish++
			keywords = append(keywords, kw)
		}
	}
	for _, kw := range neutralKeywords {
		if keywordRes[kw].MatchString(lower) {
			keywords = append(keywords, kw)
		}
	}

	switch {
	case bullish > bearish:
		sentiment = SentimentPositive
	case bearish > bullish:
		sentiment = SentimentNegative
	default:
		sentiment = SentimentNeutral
	}
	return keywords, sentiment
}

// cleanForMatching removes URLs, email addresses, and file-extension tokens
// so domain fragments are not mistaken for ticker symbols.
func cleanForMatching(text string) string {
	cleaned := text
	for _, re := range cleanURLRes {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	cleaned = cleanEmailRe.ReplaceAllString(cleaned, " ")
	cleaned = cleanExtensionRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
}

func filterSolana(addrs []string) []string {
	out := addrs[:0]
	for _, a := range addrs {
		if len(a) >= 32 && len(a) <= 44 {
			out = append(out, a)
		}
	}
	return out
}

func extractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func classifyDomain(domain string) string {
	domain = strings.ToLower(domain)
	for _, c := range urlKinds {
		for _, d := range c.domains {
			if strings.Contains(domain, d) {
				return c.kind
			}
		}
	}
	return URLKindUnknown
}

// stripEmoji removes emoji and other pictographic symbols, yielding the
// plain-text form stored alongside the original.
func stripEmoji(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r >= 0x1F000 || r == 0x200D || r == 0xFE0F || unicode.Is(unicode.So, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dedupe removes duplicates preserving first-occurrence order.
// Returns nil for empty input so omitempty fields stay omitted.
func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
