package transcript

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// SpreadsheetRenderer 表格类附件的外部转换协作者
// 核心不关心具体格式转换逻辑，仅在附件扩展名表明是表格时委托调用
type SpreadsheetRenderer interface {
	// Render 将原始字节转换为 markdown 文本
	Render(content []byte, locator string) (string, error)
}

// 识别为表格格式的扩展名（小写）
var spreadsheetExts = map[string]bool{
	".xlsx": true,
	".xls":  true,
}

// PromptAttachment 用户提供的附件引用
// 相等性仅由 SourceLocator 决定
type PromptAttachment struct {
	// SourceLocator 原始资源的 URL 或本地路径
	SourceLocator string
	// RawContent 原始字节内容
	RawContent []byte
}

// Clone 返回附件的深拷贝
func (a PromptAttachment) Clone() PromptAttachment {
	c := PromptAttachment{SourceLocator: a.SourceLocator}
	if a.RawContent != nil {
		c.RawContent = make([]byte, len(a.RawContent))
		copy(c.RawContent, a.RawContent)
	}
	return c
}

// Equal 比较两个附件是否指向同一资源
func (a PromptAttachment) Equal(other PromptAttachment) bool {
	return a.SourceLocator == other.SourceLocator
}

// DisplayName 返回展示用文件名
// 仅本地文件定位符有展示名（路径的最后一段），其他情况返回空串
func (a PromptAttachment) DisplayName() string {
	path := a.localPath()
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// RenderedText 返回附件的 markdown 渲染结果
// 表格类附件委托 renderer 转换正文，其余格式把原始内容当作文本
func (a PromptAttachment) RenderedText(renderer SpreadsheetRenderer) (string, error) {
	body := string(a.RawContent)

	path := a.localPath()
	if renderer != nil && spreadsheetExts[strings.ToLower(filepath.Ext(path))] {
		converted, err := renderer.Render(a.RawContent, a.SourceLocator)
		if err != nil {
			return "", fmt.Errorf("failed to render attachment %q: %w", a.SourceLocator, err)
		}
		body = converted
	}

	return fmt.Sprintf("## Attached: %s\n\n%s", a.DisplayName(), body), nil
}

// localPath 解析定位符对应的本地路径
// file:// 形式取其路径部分，无 scheme 的视为普通路径，其余 scheme 返回空串
func (a PromptAttachment) localPath() string {
	if a.SourceLocator == "" {
		return ""
	}

	u, err := url.Parse(a.SourceLocator)
	if err != nil {
		return a.SourceLocator
	}
	switch u.Scheme {
	case "":
		return a.SourceLocator
	case "file":
		return u.Path
	}
	return ""
}
