package server

import (
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	codeTooManyRequests = "TOO_MANY_REQUESTS"
	codeInternal        = "INTERNAL"
)

// translator renders API error messages in the negotiated language.
type translator struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
	tags    []language.Tag
	logger  *slog.Logger
}

func newTranslator(logger *slog.Logger) (*translator, error) {
	bundle := i18n.NewBundle(language.Vietnamese)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	var tags []language.Tag
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		mf, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, mf.Tag)
		logger.Debug("locale loaded", "lang", mf.Tag.String(), "messages", len(mf.Messages))
	}
	if len(tags) == 0 {
		return nil, errors.New("no locales embedded")
	}
	// Vietnamese first so it wins when nothing matches.
	ordered := []language.Tag{language.Vietnamese}
	for _, t := range tags {
		if t.String() != language.Vietnamese.String() {
			ordered = append(ordered, t)
		}
	}
	return &translator{
		bundle:  bundle,
		matcher: language.NewMatcher(ordered),
		tags:    ordered,
		logger:  logger,
	}, nil
}

// negotiate picks a supported language from an Accept-Language header,
// falling back to def and then Vietnamese.
func (t *translator) negotiate(acceptLanguage, def string) string {
	var prefs []language.Tag
	if acceptLanguage != "" {
		if parsed, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
			prefs = parsed
		}
	}
	if d, err := language.Parse(def); err == nil {
		prefs = append(prefs, d)
	}
	if len(prefs) == 0 {
		return t.tags[0].String()
	}
	_, idx, conf := t.matcher.Match(prefs...)
	if conf == language.No {
		return t.tags[0].String()
	}
	return t.tags[idx].String()
}

// message localizes err. Known messages are translated as a whole; anything
// else is wrapped in its code's generic template. Internal errors never leak
// their detail.
func (t *translator) message(locale string, err error, data map[string]any) string {
	loc := i18n.NewLocalizer(t.bundle, locale)

	code, detail := classify(err)
	td := map[string]any{"Detail": detail}
	for k, v := range data {
		td[k] = v
	}

	if code != codeInternal && detail != "" {
		if msg, lerr := loc.Localize(&i18n.LocalizeConfig{MessageID: detail, TemplateData: td}); lerr == nil {
			return msg
		}
	}
	msg, lerr := loc.Localize(&i18n.LocalizeConfig{MessageID: code, TemplateData: td})
	if lerr != nil {
		t.logger.Warn("missing translation", "locale", locale, "code", code, "error", lerr)
		if detail != "" {
			return detail
		}
		return code
	}
	return msg
}

// classify reduces err to a message-file code and its detail text.
func classify(err error) (code, detail string) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case common.CodeInvalidInput, common.CodeNotFound, common.CodeConflict, common.CodeUnprocessable:
			return appErr.Code, appErr.Message
		}
		return codeInternal, ""
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted:
			return codeTooManyRequests, s.Message()
		case codes.InvalidArgument:
			return common.CodeInvalidInput, s.Message()
		case codes.NotFound:
			return common.CodeNotFound, s.Message()
		}
		return codeInternal, ""
	}
	switch common.CodeOf(err) {
	case codes.InvalidArgument:
		return common.CodeInvalidInput, err.Error()
	case codes.NotFound:
		return common.CodeNotFound, ""
	}
	return codeInternal, ""
}
