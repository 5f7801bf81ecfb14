package nameparse

import (
	"regexp"
	"strconv"
	"strings"
)

// Inference field keys. The correction chain and the translation tables in
// parser.go address fields by these names.
const (
	fieldTitle         = "title"
	fieldYear          = "year"
	fieldSeason        = "season"
	fieldEpisode       = "episode"
	fieldEpisodeCount  = "episode_count"
	fieldPart          = "part"
	fieldDate          = "date"
	fieldLanguage      = "language"
	fieldScreenSize    = "screen_size"
	fieldSourceFormat  = "source_format"
	fieldVideoCodec    = "video_codec"
	fieldAudioCodec    = "audio_codec"
	fieldAudioChannels = "audio_channels"
	fieldContainer     = "container"
	fieldProperCount   = "proper_count"
	fieldReleaseGroup  = "release_group"
	fieldDistributors  = "release_distributors"
	fieldStreaming     = "streaming_service"
	fieldWebsite       = "website"
	fieldEdition       = "edition"
	fieldType          = "type"
)

var containerExts = map[string]string{
	"mkv": "mkv", "avi": "avi", "mp4": "mp4",
	"m4v": "m4v", "mov": "mov", "wmv": "wmv", "ts": "ts",
}

// Canonical spellings for source formats. Keys are lowercased tokens.
var sourceFormats = map[string]string{
	"hdtv":    "HDTV",
	"pdtv":    "PDTV",
	"webrip":  "WEBRip",
	"web-dl":  "WEB-DL",
	"webdl":   "WEB-DL",
	"web":     "WEB",
	"bluray":  "BluRay",
	"blu-ray": "BluRay",
	"brrip":   "BRRip",
	"bdrip":   "BDRip",
	"dvdrip":  "DVDRip",
	"dvd":     "DVD",
	"cam":     "CAM",
	"hdcam":   "CAM",
}

var videoCodecs = map[string]string{
	"x264": "h264", "h264": "h264",
	"x265": "h265", "h265": "h265", "hevc": "h265",
	"xvid": "xvid", "divx": "divx", "av1": "av1",
	"mpeg2": "mpeg2", "vp9": "vp9",
}

var audioCodecs = map[string]string{
	"aac": "aac", "ac3": "ac3", "eac3": "eac3", "dd": "ac3",
	"ddp": "eac3", "dts": "dts", "truehd": "truehd",
	"mp3": "mp3", "flac": "flac", "opus": "opus", "atmos": "atmos",
}

var streamingServices = map[string]string{
	"nf":     "Netflix",
	"amzn":   "Amazon Prime",
	"hulu":   "Hulu",
	"dsnp":   "Disney+",
	"atvp":   "Apple TV+",
	"hmax":   "Max",
	"pcok":   "Peacock",
	"itunes": "iTunes",
	"it":     "iTunes",
}

var editionWords = map[string]string{
	"extended":   "Extended",
	"unrated":    "Unrated",
	"remastered": "Remastered",
	"uncut":      "Uncut",
	"theatrical": "Theatrical",
	"imax":       "IMAX",
}

var properWords = map[string]bool{
	"proper": true, "repack": true, "rerip": true, "real": true,
}

// Tokens that never belong to a release group slot even when they trail a
// dash, to keep WEB-DL and x-264 style compounds intact.
var groupBlocklist = map[string]bool{
	"dl": true, "ray": true, "rip": true, "264": true, "265": true,
}

var (
	sxxEyyRe      = regexp.MustCompile(`(?i)^s(\d{1,2})[ ._-]?e(\d{1,3})$`)
	nxNNRe        = regexp.MustCompile(`^(\d{1,2})x(\d{2,3})$`)
	seasonOnlyRe  = regexp.MustCompile(`(?i)^s(\d{1,2})$`)
	episodeOnlyRe = regexp.MustCompile(`(?i)^e(\d{1,3})$`)
	partRe        = regexp.MustCompile(`(?i)^part[ ._]?(\d{1,2})$`)
	xOfYRe        = regexp.MustCompile(`(?i)^(\d{1,2})of(\d{1,2})$`)
	yearRe        = regexp.MustCompile(`^(19|20)\d{2}$`)
	screenRe      = regexp.MustCompile(`(?i)^(480|576|720|1080|2160)[pi]$`)
	channelsRe    = regexp.MustCompile(`\b([257])\.([01])\b`)
	hCodecRe      = regexp.MustCompile(`(?i)\bh\.26([45])\b`)
	ddChannelRe   = regexp.MustCompile(`(?i)\bdd([p+]?)([257])\.([01])\b`)
	groupRe       = regexp.MustCompile(`-([A-Za-z0-9]+)$`)
	monthDayRe    = regexp.MustCompile(`^(\d{2})$`)
)

// langDetector is implemented by the language package. Injected so
// inference stays testable without a table import cycle.
type langDetector interface {
	Known(word string) bool
}

// inferFields runs the tokenizer over a release name and returns the loose
// field map. typeHint may be empty; when set to "episode" or "movie" it wins
// over the structural guess.
func inferFields(name, typeHint string, langs langDetector) map[string]any {
	fields := make(map[string]any)
	work := name

	// Container extension first, before separators destroy it.
	if dot := strings.LastIndex(work, "."); dot > 0 && dot < len(work)-1 {
		if ext, ok := containerExts[strings.ToLower(work[dot+1:])]; ok {
			fields[fieldContainer] = ext
			work = work[:dot]
		}
	}

	// Dotted compounds that tokenization would split.
	work = hCodecRe.ReplaceAllStringFunc(work, func(m string) string {
		v := "h264"
		if strings.HasSuffix(m, "5") {
			v = "h265"
		}
		fields[fieldVideoCodec] = v
		return ""
	})
	work = ddChannelRe.ReplaceAllStringFunc(work, func(m string) string {
		sub := ddChannelRe.FindStringSubmatch(m)
		if sub[1] != "" {
			fields[fieldAudioCodec] = "eac3"
		} else {
			fields[fieldAudioCodec] = "ac3"
		}
		fields[fieldAudioChannels] = sub[2] + "." + sub[3]
		return ""
	})
	if _, ok := fields[fieldAudioChannels]; !ok {
		work = channelsRe.ReplaceAllStringFunc(work, func(m string) string {
			sub := channelsRe.FindStringSubmatch(m)
			fields[fieldAudioChannels] = sub[1] + "." + sub[2]
			return ""
		})
	}

	// Trailing release group, before tokenization eats the dash.
	if m := groupRe.FindStringSubmatch(work); m != nil {
		candidate := m[1]
		lc := strings.ToLower(candidate)
		_, isCodec := videoCodecs[lc]
		_, isSource := sourceFormats[lc]
		if !isCodec && !isSource && !groupBlocklist[lc] && !yearRe.MatchString(candidate) {
			fields[fieldReleaseGroup] = candidate
			work = work[:len(work)-len(m[0])]
		}
	}

	tokens := strings.FieldsFunc(work, func(r rune) bool {
		return r == '.' || r == ' ' || r == '_'
	})

	var (
		titleEnd  = -1
		languages []string
		dubbed    bool
		proper    int
	)
	markTitleEnd := func(i int) {
		if titleEnd == -1 {
			titleEnd = i
		}
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		lc := strings.ToLower(tok)

		switch {
		case sxxEyyRe.MatchString(tok):
			m := sxxEyyRe.FindStringSubmatch(tok)
			fields[fieldSeason] = atoi(m[1])
			fields[fieldEpisode] = atoi(m[2])
			markTitleEnd(i)
		case nxNNRe.MatchString(tok):
			m := nxNNRe.FindStringSubmatch(tok)
			fields[fieldSeason] = atoi(m[1])
			fields[fieldEpisode] = atoi(m[2])
			markTitleEnd(i)
		case lc == "season" && i+1 < len(tokens) && isSmallInt(tokens[i+1]):
			fields[fieldSeason] = atoi(tokens[i+1])
			markTitleEnd(i)
			i++
		case lc == "episode" && i+1 < len(tokens) && isSmallInt(tokens[i+1]):
			fields[fieldEpisode] = atoi(tokens[i+1])
			markTitleEnd(i)
			i++
		case seasonOnlyRe.MatchString(tok) && titleEnd == -1 && hasStructureAfter(tokens[i+1:]):
			m := seasonOnlyRe.FindStringSubmatch(tok)
			fields[fieldSeason] = atoi(m[1])
			markTitleEnd(i)
		case episodeOnlyRe.MatchString(tok) && fields[fieldSeason] != nil:
			m := episodeOnlyRe.FindStringSubmatch(tok)
			fields[fieldEpisode] = atoi(m[1])
			markTitleEnd(i)
		case partRe.MatchString(tok):
			m := partRe.FindStringSubmatch(tok)
			fields[fieldPart] = atoi(m[1])
			markTitleEnd(i)
		case lc == "part" && i+1 < len(tokens) && isSmallInt(tokens[i+1]):
			fields[fieldPart] = atoi(tokens[i+1])
			markTitleEnd(i)
			i++
		case xOfYRe.MatchString(tok):
			m := xOfYRe.FindStringSubmatch(tok)
			fields[fieldEpisode] = atoi(m[1])
			fields[fieldEpisodeCount] = atoi(m[2])
			markTitleEnd(i)
		case yearRe.MatchString(tok):
			markTitleEnd(i)
			if i+2 < len(tokens) && isMonth(tokens[i+1]) && isDay(tokens[i+2]) {
				fields[fieldDate] = tok + "-" + tokens[i+1] + "-" + tokens[i+2]
				i += 2
			} else {
				fields[fieldYear] = atoi(tok)
			}
		case screenRe.MatchString(tok):
			fields[fieldScreenSize] = strings.ToLower(tok)
			markTitleEnd(i)
		case lc == "4k":
			fields[fieldScreenSize] = "2160p"
			markTitleEnd(i)
		case sourceFormats[lc] != "":
			fields[fieldSourceFormat] = sourceFormats[lc]
			markTitleEnd(i)
		case videoCodecs[lc] != "":
			fields[fieldVideoCodec] = videoCodecs[lc]
			markTitleEnd(i)
		case audioCodecs[lc] != "" && titleEnd != -1:
			fields[fieldAudioCodec] = audioCodecs[lc]
		case properWords[lc] && titleEnd != -1:
			proper++
		case editionWords[lc] != "":
			fields[fieldEdition] = editionWords[lc]
			markTitleEnd(i)
		case streamingServices[lc] != "" && titleEnd != -1 && tok == strings.ToUpper(tok):
			fields[fieldStreaming] = streamingServices[lc]
		case lc == "multi" && titleEnd != -1:
			languages = append(languages, "mul")
		case lc == "dubbed" && titleEnd != -1:
			dubbed = true
		case strings.HasPrefix(lc, "www"):
			fields[fieldWebsite] = tok
			markTitleEnd(i)
		case titleEnd != -1 && isLanguageToken(tok, langs):
			languages = append(languages, lc)
		}
	}

	if titleEnd == -1 {
		titleEnd = len(tokens)
	}
	if title := cleanTitle(tokens[:titleEnd]); title != "" {
		fields[fieldTitle] = title
	}

	if proper > 0 {
		fields[fieldProperCount] = proper
	}
	if dubbed && len(languages) == 0 {
		languages = append(languages, "und")
	}
	switch len(languages) {
	case 0:
	case 1:
		fields[fieldLanguage] = languages[0]
	default:
		fields[fieldLanguage] = languages
	}

	if typeHint != "" {
		fields[fieldType] = typeHint
	} else {
		_, hasSeason := fields[fieldSeason]
		_, hasEpisode := fields[fieldEpisode]
		_, hasDate := fields[fieldDate]
		_, hasPart := fields[fieldPart]
		if hasSeason || hasEpisode || hasDate || hasPart {
			fields[fieldType] = "episode"
		} else if _, ok := fields[fieldTitle]; ok {
			fields[fieldType] = "movie"
		}
	}
	return fields
}

// isLanguageToken accepts full language words in any case and bare
// three-letter codes only when uppercased, so ordinary title words such as
// "her" or "son" do not register as languages.
func isLanguageToken(tok string, langs langDetector) bool {
	if langs == nil {
		return false
	}
	if len(tok) == 3 && tok == strings.ToUpper(tok) && tok != strings.ToLower(tok) {
		return langs.Known(strings.ToLower(tok))
	}
	if len(tok) >= 5 {
		return langs.Known(strings.ToLower(tok))
	}
	return false
}

func hasStructureAfter(rest []string) bool {
	for _, tok := range rest {
		lc := strings.ToLower(tok)
		if episodeOnlyRe.MatchString(tok) || screenRe.MatchString(tok) ||
			sourceFormats[lc] != "" || videoCodecs[lc] != "" {
			return true
		}
	}
	return false
}

func cleanTitle(tokens []string) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, "-")
		if tok != "" {
			parts = append(parts, tok)
		}
	}
	return strings.Join(parts, " ")
}

func isSmallInt(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func isMonth(s string) bool {
	if !monthDayRe.MatchString(s) {
		return false
	}
	n := atoi(s)
	return n >= 1 && n <= 12
}

func isDay(s string) bool {
	if !monthDayRe.MatchString(s) {
		return false
	}
	n := atoi(s)
	return n >= 1 && n <= 31
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
