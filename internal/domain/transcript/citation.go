package transcript

import "sort"

// CitationRecord 一条检索到的上下文片段及其来源信息
// File 是归并的分组键，持久化时必须非空
type CitationRecord struct {
	// Collection 所属集合
	Collection string
	// Path 来源完整路径
	Path string
	// File 来源文件名（分组键）
	File string
	// Title 文档标题
	Title string
	// Author 作者
	Author string
	// Date 日期
	Date string
	// Text 片段正文
	Text string
	// Page 页码，-1 表示无
	Page int
	// From 起始行号，-1 表示无
	From int
	// To 结束行号，-1 表示无
	To int
}

// NewCitationRecord 创建引用记录，整型字段初始化为 -1（无）
func NewCitationRecord() CitationRecord {
	return CitationRecord{Page: -1, From: -1, To: -1}
}

// cloneCitations 拷贝引用记录切片
func cloneCitations(records []CitationRecord) []CitationRecord {
	if records == nil {
		return nil
	}
	c := make([]CitationRecord, len(records))
	copy(c, records)
	return c
}

// ConsolidateCitations 按 File 归并引用记录
// 同一文件的首条记录作为代表，其余记录的 Text 以 "\n---\n" 追加到代表上，
// 其他字段保持首条记录的值。输出按 File 升序排列。
// 幂等：对已归并的列表再次归并只会按键重排。
func ConsolidateCitations(records []CitationRecord) []CitationRecord {
	grouped := make(map[string]CitationRecord)
	for _, r := range records {
		if rep, ok := grouped[r.File]; ok {
			rep.Text += "\n---\n" + r.Text
			grouped[r.File] = rep
		} else {
			grouped[r.File] = r
		}
	}

	files := make([]string, 0, len(grouped))
	for file := range grouped {
		files = append(files, file)
	}
	sort.Strings(files)

	consolidated := make([]CitationRecord, 0, len(files))
	for _, file := range files {
		consolidated = append(consolidated, grouped[file])
	}
	return consolidated
}
