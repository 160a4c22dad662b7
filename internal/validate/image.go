package validate

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"go-og-audit/internal/imageprobe"
	"go-og-audit/internal/model"
	"go-og-audit/internal/score"
)

const (
	// 推荐的预览图尺寸
	RecommendedWidth  = 1200
	RecommendedHeight = 630

	// MaxImageBytes 为图片大小上限（600 KB），其上 20% 区间给出警告。
	MaxImageBytes  = 600 * 1024
	WarnImageBytes = MaxImageBytes * 8 / 10
)

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}

// IsAbsolute 判断值是否已是绝对 http(s) URL。
func IsAbsolute(raw string) bool {
	l := strings.ToLower(raw)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// ResolveImageURL 将相对地址解析为绝对地址：
// "/a.png" → origin + "/a.png"；"a.png" → origin + "/a.png"；"//cdn/a.png" 沿用页面协议。
func ResolveImageURL(raw string, page *url.URL) string {
	raw = strings.TrimSpace(raw)
	if IsAbsolute(raw) {
		return raw
	}
	origin := page.Scheme + "://" + page.Host
	switch {
	case strings.HasPrefix(raw, "//"):
		return page.Scheme + ":" + raw
	case strings.HasPrefix(raw, "/"):
		return origin + raw
	default:
		return origin + "/" + raw
	}
}

// imageChecks 依次执行图片相关检查；图片不可访问时不再进行后续检查。
func (v *Validator) imageChecks(ctx context.Context, value *string, page *url.URL) []model.ValidationCheck {
	if value == nil || strings.TrimSpace(*value) == "" {
		return []model.ValidationCheck{{
			Name:           score.CheckImage,
			Status:         model.StatusFail,
			Message:        "Missing og:image tag",
			Recommendation: fmt.Sprintf("Add an og:image tag pointing to a %dx%d PNG or JPEG under 600 KB.", RecommendedWidth, RecommendedHeight),
		}}
	}
	original := strings.TrimSpace(*value)
	imageURL := ResolveImageURL(original, page)

	checks := []model.ValidationCheck{{
		Name:    score.CheckImage,
		Status:  model.StatusPass,
		Message: "og:image is present",
		Value:   imageURL,
	}}
	if IsAbsolute(original) {
		checks = append(checks, model.ValidationCheck{
			Name:    score.CheckImageURL,
			Status:  model.StatusPass,
			Message: "og:image uses an absolute URL",
			Value:   original,
		})
	} else {
		checks = append(checks, model.ValidationCheck{
			Name:           score.CheckImageURL,
			Status:         model.StatusWarn,
			Message:        "og:image uses a relative URL",
			Value:          original,
			Recommendation: fmt.Sprintf("Use the absolute URL %s; some platforms do not resolve relative image URLs.", imageURL),
		})
	}

	img, err := v.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return append(checks, model.ValidationCheck{
			Name:           score.CheckImageAccessible,
			Status:         model.StatusFail,
			Message:        fmt.Sprintf("Could not fetch image: %v", err),
			Value:          imageURL,
			Recommendation: "Make sure the image URL is publicly reachable and returns HTTP 2xx.",
		})
	}
	checks = append(checks, model.ValidationCheck{
		Name:    score.CheckImageAccessible,
		Status:  model.StatusPass,
		Message: "Image is accessible",
		Value:   imageURL,
	})

	checks = append(checks, formatCheck(img.ContentType, img.Body), sizeCheck(len(img.Body)))
	if d, ok := imageprobe.Probe(img.Body); ok {
		checks = append(checks, dimensionsCheck(d))
	}
	return checks
}

// formatCheck 以 Content-Type 为准；类型不可接受但内容头部可识别为 PNG/JPEG 时，
// 仍给 warn，并提示应声明的类型。
func formatCheck(contentType string, body []byte) model.ValidationCheck {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if imageTypes[mediaType] {
		return model.ValidationCheck{
			Name:    score.CheckImageFormat,
			Status:  model.StatusPass,
			Message: fmt.Sprintf("Image format is %s", mediaType),
			Value:   mediaType,
		}
	}
	if detected := imageprobe.Format(body); detected != "" {
		return model.ValidationCheck{
			Name:           score.CheckImageFormat,
			Status:         model.StatusWarn,
			Message:        fmt.Sprintf("Content type %q does not match the %s image data", contentType, detected),
			Value:          contentType,
			Recommendation: fmt.Sprintf("Serve the preview image with Content-Type image/%s.", detected),
		}
	}
	return model.ValidationCheck{
		Name:           score.CheckImageFormat,
		Status:         model.StatusWarn,
		Message:        fmt.Sprintf("Unexpected image content type %q", contentType),
		Value:          contentType,
		Recommendation: "Serve the preview image as PNG, JPEG or WebP.",
	}
}

func sizeCheck(n int) model.ValidationCheck {
	kb := n / 1024
	switch {
	case n > MaxImageBytes:
		return model.ValidationCheck{
			Name:           score.CheckImageSize,
			Status:         model.StatusFail,
			Message:        fmt.Sprintf("Image is too large (%d KB)", kb),
			Value:          kb,
			Recommendation: "Compress the image below 600 KB; larger images may be skipped by social platforms.",
		}
	case n >= WarnImageBytes:
		return model.ValidationCheck{
			Name:           score.CheckImageSize,
			Status:         model.StatusWarn,
			Message:        fmt.Sprintf("Image is close to the 600 KB limit (%d KB)", kb),
			Value:          kb,
			Recommendation: "Compress the image to stay well below 600 KB.",
		}
	}
	return model.ValidationCheck{
		Name:    score.CheckImageSize,
		Status:  model.StatusPass,
		Message: fmt.Sprintf("Image size is %d KB", kb),
		Value:   kb,
	}
}

func dimensionsCheck(d imageprobe.Dimensions) model.ValidationCheck {
	value := fmt.Sprintf("%dx%d", d.Width, d.Height)
	switch {
	case d.Width == RecommendedWidth && d.Height == RecommendedHeight:
		return model.ValidationCheck{
			Name:    score.CheckImageDimensions,
			Status:  model.StatusPass,
			Message: fmt.Sprintf("Image is %s", value),
			Value:   value,
		}
	case d.Width >= RecommendedWidth && d.Height >= RecommendedHeight:
		return model.ValidationCheck{
			Name:           score.CheckImageDimensions,
			Status:         model.StatusWarn,
			Message:        fmt.Sprintf("Image is larger than recommended (%s)", value),
			Value:          value,
			Recommendation: fmt.Sprintf("Resize to exactly %dx%d to avoid cropping and save bandwidth.", RecommendedWidth, RecommendedHeight),
		}
	}
	return model.ValidationCheck{
		Name:           score.CheckImageDimensions,
		Status:         model.StatusWarn,
		Message:        fmt.Sprintf("Non-standard image dimensions (%s)", value),
		Value:          value,
		Recommendation: fmt.Sprintf("Use a %dx%d image (1.91:1 aspect ratio).", RecommendedWidth, RecommendedHeight),
	}
}
