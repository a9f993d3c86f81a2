package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chatvault/backend/internal/domain/transcript"
)

// ErrReferenceMismatch 旧格式中引用行数与上下文条数不一致
// 这是不变量破坏，不做静默截断
var ErrReferenceMismatch = errors.New("codec: legacy reference/context count mismatch")

// encodeLegacyReferences 把引用记录编码为旧格式（3 ≤ 版本 < 8）：
// 一个以换行连接的引用行字符串，加一个平行的上下文字符串列表。
// File 为空的记录被跳过，编号只对写出的记录递增。
func encodeLegacyReferences(records []transcript.CitationRecord) (string, []string) {
	var lines []string
	var contexts []string

	n := 1
	for i := range records {
		r := &records[i]
		if r.File == "" {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d. ", n)
		if r.Title != "" {
			fmt.Fprintf(&b, "\"%s\". ", r.Title)
		}
		if r.Author != "" {
			fmt.Fprintf(&b, "By %s. ", r.Author)
		}
		if r.Date != "" {
			fmt.Fprintf(&b, "Date: %s. ", r.Date)
		}
		fmt.Fprintf(&b, "In %s. ", r.File)
		if r.Page != -1 {
			fmt.Fprintf(&b, "Page %d. ", r.Page)
		}
		if r.From != -1 {
			fmt.Fprintf(&b, "Lines %d", r.From)
			if r.To != -1 {
				fmt.Fprintf(&b, "-%d", r.To)
			}
			b.WriteString(". ")
		}
		fmt.Fprintf(&b, "[Context](context://%d)", n)
		n++

		lines = append(lines, b.String())
		contexts = append(contexts, r.Text)
	}

	return strings.Join(lines, "\n"), contexts
}

// parseLegacyReferences 把旧格式的引用行解析回引用记录
//
// 解析器是上面写出逻辑的尽力而为镜像，只针对自己写出的行，
// 不用于任意文本。缺失分隔符时提取出空字段而不是报错，
// 这一宽松行为是有意保留的。
func parseLegacyReferences(refs string, contexts []string) ([]transcript.CitationRecord, error) {
	// 丢弃空行和 "---" 开头的行（更早版本的遗留产物）
	var lines []string
	for _, line := range strings.Split(refs, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "---") {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) != len(contexts) {
		return nil, fmt.Errorf("%w: %d references, %d contexts",
			ErrReferenceMismatch, len(lines), len(contexts))
	}

	records := make([]transcript.CitationRecord, 0, len(lines))
	for i, line := range lines {
		r := parseReferenceLine(line)
		r.Text = contexts[i]
		records = append(records, r)
	}
	return records, nil
}

// parseReferenceLine 从单个引用行提取来源字段
func parseReferenceLine(line string) transcript.CitationRecord {
	r := transcript.NewCitationRecord()

	// 标题：前两个引号之间
	if start := strings.Index(line, `"`); start != -1 {
		if end := strings.Index(line[start+1:], `"`); end != -1 {
			r.Title = line[start+1 : start+1+end]
		}
	}

	// 作者："By " 之后到下一个句点
	if v, ok := between(line, "By ", "."); ok {
		r.Author = strings.TrimSpace(v)
	}

	// 日期："Date: " 之后到下一个句点
	if v, ok := between(line, "Date: ", "."); ok {
		r.Date = strings.TrimSpace(v)
	}

	// 文件名："In " 之后到下一个 ". " 之前
	// 只在行里确实有 "[Context]" 尾巴时才认为这是引用行；
	// 截断到 ". " 而不是 ". [Context]"，否则可选的页码、
	// 行号段会被并进文件名
	if strings.Contains(line, ". [Context]") {
		if v, ok := between(line, "In ", ". "); ok {
			r.File = strings.TrimSpace(v)
		}
	}

	// 页码："Page " 之后到下一个空格
	if v, ok := between(line, "Page ", " "); ok {
		r.Page = atoiLenient(v)
	}

	// 行号范围："Lines " 之后到下一个空格，范围内按 "-" 拆分
	if v, ok := between(line, "Lines ", " "); ok {
		if hyphen := strings.Index(v, "-"); hyphen != -1 {
			r.From = atoiLenient(v[:hyphen])
			r.To = atoiLenient(v[hyphen+1:])
		} else {
			r.From = atoiLenient(v)
		}
	}

	return r
}

// between 返回 s 中 prefix 之后到 sep 之前的内容
// prefix 不存在时返回 false；sep 不存在时取到行尾
func between(s, prefix, sep string) (string, bool) {
	start := strings.Index(s, prefix)
	if start == -1 {
		return "", false
	}
	rest := s[start+len(prefix):]
	if end := strings.Index(rest, sep); end != -1 {
		return rest[:end], true
	}
	return rest, true
}

// atoiLenient 解析前导十进制数字，忽略其后的任何内容
// 没有数字时返回 0，与旧实现的宽松语义一致
func atoiLenient(s string) int {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	n := 0
	digits := false
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		digits = true
	}
	if !digits {
		return 0
	}
	if neg {
		return -n
	}
	return n
}
