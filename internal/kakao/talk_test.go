package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/focusmate/internal/domain"
)

func talkServer(t *testing.T) *fakeKakao {
	t.Helper()
	return newFakeKakao(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != memoSendPath {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"result_code":0}`)
	})
}

func decodeTemplate(t *testing.T, req recordedRequest) map[string]any {
	t.Helper()
	var tmpl map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Form.Get("template_object")), &tmpl))
	return tmpl
}

func TestSendCommitment_TextTruncatedTo200(t *testing.T) {
	f := talkServer(t)
	goal := strings.Repeat("g", 180)
	encouragement := strings.Repeat("e", 50)

	conf, err := f.client().SendCommitment(context.Background(), domain.MessageArgs{
		Goal:          goal,
		Encouragement: encouragement,
		TemplateType:  domain.TemplateText,
	})
	require.NoError(t, err)
	assert.True(t, conf.Success)

	reqs := f.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer user-token", reqs[0].Auth)

	tmpl := decodeTemplate(t, reqs[0])
	assert.Equal(t, "text", tmpl["object_type"])
	text := tmpl["text"].(string)
	assert.Equal(t, MaxTextLength, utf8.RuneCountInString(text))
	assert.True(t, strings.HasPrefix(text, textHeading+"\n\n"+goal[:10]))

	link := tmpl["link"].(map[string]any)
	assert.Equal(t, FallbackLinkURL, link["web_url"])
	assert.Equal(t, FallbackLinkURL, link["mobile_web_url"])
	assert.NotContains(t, tmpl, "button_title")
}

func TestSendCommitment_FeedWithLocation(t *testing.T) {
	f := talkServer(t)

	conf, err := f.client().SendCommitment(context.Background(), domain.MessageArgs{
		Goal:          "Finish chapter 3",
		LocationName:  "Focus Study Cafe",
		LocationURL:   "http://place.map.kakao.com/1",
		Encouragement: "Go!",
		TemplateType:  domain.TemplateFeed,
	})
	require.NoError(t, err)
	assert.Equal(t, "Go!", conf.Encouragement)
	assert.Equal(t, domain.TemplateFeed, conf.TemplateType)

	tmpl := decodeTemplate(t, f.Requests()[0])
	assert.Equal(t, "feed", tmpl["object_type"])

	content := tmpl["content"].(map[string]any)
	assert.Equal(t, feedTitle, content["title"])
	assert.Equal(t, "Goal: Finish chapter 3\nPlace: Focus Study Cafe\n\nGo!", content["description"])
	assert.Equal(t, "http://place.map.kakao.com/1", content["link"].(map[string]any)["web_url"])

	buttons := tmpl["buttons"].([]any)
	require.Len(t, buttons, 1)
	button := buttons[0].(map[string]any)
	assert.Equal(t, mapButtonTitle, button["title"])
	assert.Equal(t, "http://place.map.kakao.com/1", button["link"].(map[string]any)["mobile_web_url"])
}

func TestSendCommitment_FeedWithoutLocation(t *testing.T) {
	f := talkServer(t)

	_, err := f.client().SendCommitment(context.Background(), domain.MessageArgs{
		Goal: "Run 5k", Encouragement: "Keep going", TemplateType: domain.TemplateFeed,
	})
	require.NoError(t, err)

	tmpl := decodeTemplate(t, f.Requests()[0])
	assert.NotContains(t, tmpl, "buttons")
	content := tmpl["content"].(map[string]any)
	assert.Equal(t, "Goal: Run 5k\n\nKeep going", content["description"])
	assert.Equal(t, FallbackLinkURL, content["link"].(map[string]any)["web_url"])
}

func TestSendCommitment_TextButtonOnlyWithURL(t *testing.T) {
	f := talkServer(t)

	_, err := f.client().SendCommitment(context.Background(), domain.MessageArgs{
		Goal: "Read", LocationURL: "https://map.kakao.com/?q=library", Encouragement: "x", TemplateType: domain.TemplateText,
	})
	require.NoError(t, err)

	tmpl := decodeTemplate(t, f.Requests()[0])
	assert.Equal(t, textButtonTitle, tmpl["button_title"])
}

func TestSendCommitment_PicksEncouragement(t *testing.T) {
	f := talkServer(t)
	var gotN int
	c := f.client(WithPicker(func(n int) int {
		gotN = n
		return 2
	}))

	conf, err := c.SendCommitment(context.Background(), domain.MessageArgs{Goal: "Write", TemplateType: domain.TemplateFeed})
	require.NoError(t, err)
	assert.Equal(t, len(Encouragements), gotN)
	assert.Equal(t, Encouragements[2], conf.Encouragement)
}

func TestSendCommitment_DefaultTemplateIsFeed(t *testing.T) {
	f := talkServer(t)

	conf, err := f.client().SendCommitment(context.Background(), domain.MessageArgs{Goal: "Write", Encouragement: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.TemplateFeed, conf.TemplateType)
	assert.Equal(t, "feed", decodeTemplate(t, f.Requests()[0])["object_type"])
}

func TestSendCommitment_MissingToken(t *testing.T) {
	f := talkServer(t)
	c := f.client(WithTokenProvider(NewStaticTokenProvider("")))

	_, err := c.SendCommitment(context.Background(), domain.MessageArgs{Goal: "Write", TemplateType: domain.TemplateFeed})
	requireKind(t, err, domain.KindConfigMissing)
	assert.Empty(t, f.Requests())
}

func TestSendCommitment_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantKind  domain.Kind
		wantScope string
	}{
		{"unauthorized", http.StatusUnauthorized, domain.KindUnauthorized, ""},
		{"forbidden", http.StatusForbidden, domain.KindForbidden, messageScope},
		{"bad request", http.StatusBadRequest, domain.KindProvider, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeKakao(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := f.client().SendCommitment(context.Background(), domain.MessageArgs{Goal: "Write", TemplateType: domain.TemplateText})
			de := requireKind(t, err, tt.wantKind)
			assert.Equal(t, tt.wantScope, de.Scope)
		})
	}
}

func TestCommitmentText(t *testing.T) {
	short := CommitmentText("Write", "Go")
	assert.Equal(t, textHeading+"\n\nWrite\n\nGo", short)

	// multi-byte characters count as one each
	long := CommitmentText(strings.Repeat("공부", 150), "화이팅")
	assert.Equal(t, MaxTextLength, utf8.RuneCountInString(long))
	assert.True(t, utf8.ValidString(long))
}
