package ingest

import (
	"regexp"
	"strings"

	"github.com/linkhoard/linkhoard/internal/model"
)

var extensionTypes = map[string]model.BookmarkType{
	".pdf":  model.BookmarkTypeArticle,
	".doc":  model.BookmarkTypeArticle,
	".docx": model.BookmarkTypeArticle,
	".ppt":  model.BookmarkTypeArticle,
	".pptx": model.BookmarkTypeArticle,
	".xls":  model.BookmarkTypeArticle,
	".xlsx": model.BookmarkTypeArticle,
	".md":   model.BookmarkTypeArticle,
	".txt":  model.BookmarkTypeArticle,
	".epub": model.BookmarkTypeArticle,
	".html": model.BookmarkTypeArticle,
	".htm":  model.BookmarkTypeArticle,
	".png":  model.BookmarkTypeImage,
	".jpg":  model.BookmarkTypeImage,
	".jpeg": model.BookmarkTypeImage,
	".gif":  model.BookmarkTypeImage,
	".webp": model.BookmarkTypeImage,
	".svg":  model.BookmarkTypeImage,
	".bmp":  model.BookmarkTypeImage,
	".mp4":  model.BookmarkTypeVideo,
	".mov":  model.BookmarkTypeVideo,
	".webm": model.BookmarkTypeVideo,
	".avi":  model.BookmarkTypeVideo,
	".mkv":  model.BookmarkTypeVideo,
	".mp3":  model.BookmarkTypeAudio,
	".wav":  model.BookmarkTypeAudio,
	".m4a":  model.BookmarkTypeAudio,
	".flac": model.BookmarkTypeAudio,
	".ogg":  model.BookmarkTypeAudio,
}

// TypeFromExtension maps a lower-cased file extension (with leading dot) to a
// bookmark type. Unknown extensions map to "other".
func TypeFromExtension(ext string) model.BookmarkType {
	if t, ok := extensionTypes[strings.ToLower(ext)]; ok {
		return t
	}
	return model.BookmarkTypeOther
}

type urlTypeRule struct {
	pattern *regexp.Regexp
	typ     model.BookmarkType
}

// Evaluated top to bottom, first match wins. Video host rules come before the
// article host rules because some platforms (e.g. bilibili read pages) would
// otherwise match both; the image-suffix rule sits between them so a direct
// image link on a video host still classifies as video.
var urlTypeRules = []urlTypeRule{
	{regexp.MustCompile(`(?i)(youtube\.com/watch|youtu\.be/)`), model.BookmarkTypeVideo},
	{regexp.MustCompile(`(?i)(bilibili\.com/video|b23\.tv/)`), model.BookmarkTypeVideo},
	{regexp.MustCompile(`(?i)(douyin\.com|tiktok\.com)`), model.BookmarkTypeVideo},
	{regexp.MustCompile(`(?i)\.(png|jpe?g|gif|webp|svg|bmp)(\?|#|$)`), model.BookmarkTypeImage},
	{regexp.MustCompile(`(?i)mp\.weixin\.qq\.com/`), model.BookmarkTypeArticle},
	{regexp.MustCompile(`(?i)xiaohongshu\.com/(explore|discovery)`), model.BookmarkTypeArticle},
	{regexp.MustCompile(`(?i)zhihu\.com/(p|question|zhuanlan)`), model.BookmarkTypeArticle},
	{regexp.MustCompile(`(?i)(medium\.com/|substack\.com/p/)`), model.BookmarkTypeArticle},
	{regexp.MustCompile(`(?i)bilibili\.com/read`), model.BookmarkTypeArticle},
}

// TypeFromURL classifies a URL by shape; anything unrecognized is a plain link.
func TypeFromURL(rawURL string) model.BookmarkType {
	for _, rule := range urlTypeRules {
		if rule.pattern.MatchString(rawURL) {
			return rule.typ
		}
	}
	return model.BookmarkTypeLink
}

type platformRule struct {
	pattern  *regexp.Regexp
	platform string
}

// Ordered like urlTypeRules; the wechat rule must precede any generic
// qq.com-style rule added later.
var platformRules = []platformRule{
	{regexp.MustCompile(`(?i)mp\.weixin\.qq\.com`), "wechat"},
	{regexp.MustCompile(`(?i)(xiaohongshu\.com|xhslink\.com)`), "xiaohongshu"},
	{regexp.MustCompile(`(?i)(bilibili\.com|b23\.tv)`), "bilibili"},
	{regexp.MustCompile(`(?i)(youtube\.com|youtu\.be)`), "youtube"},
	{regexp.MustCompile(`(?i)zhihu\.com`), "zhihu"},
	{regexp.MustCompile(`(?i)(twitter\.com|x\.com)`), "twitter"},
	{regexp.MustCompile(`(?i)github\.com`), "github"},
}

// PlatformFromURL returns the recognized source platform, or "" when the URL
// does not match any known platform. Unknown is not an error.
func PlatformFromURL(rawURL string) string {
	for _, rule := range platformRules {
		if rule.pattern.MatchString(rawURL) {
			return rule.platform
		}
	}
	return ""
}
