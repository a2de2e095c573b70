package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Archive 接收带目录的文件名与内容，Close 后产出完整的归档。
type Archive interface {
	Add(name string, data []byte) error
	Close() error
}

// ZipArchive 将文件写入一个 zip 包。
type ZipArchive struct {
	zw *zip.Writer
}

var _ Archive = (*ZipArchive)(nil)

// NewZip 在 w 上创建 zip 归档。w 的关闭由调用方负责。
func NewZip(w io.Writer) *ZipArchive {
	return &ZipArchive{zw: zip.NewWriter(w)}
}

func (a *ZipArchive) Add(name string, data []byte) error {
	if err := checkEntryName(name); err != nil {
		return err
	}
	fw, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return err
	}
	_, err = fw.Write(data)
	return err
}

func (a *ZipArchive) Close() error { return a.zw.Close() }

// DirArchive 将文件按目录结构写到磁盘。
type DirArchive struct {
	root string
}

var _ Archive = (*DirArchive)(nil)

// NewDir 创建以 root 为根目录的目录归档。
func NewDir(root string) *DirArchive {
	return &DirArchive{root: root}
}

func (a *DirArchive) Add(name string, data []byte) error {
	if err := checkEntryName(name); err != nil {
		return err
	}
	target := filepath.Join(a.root, filepath.FromSlash(name))
	if rel, err := filepath.Rel(a.root, target); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("文件 %s 不在输出目录 %s 内", name, a.root)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

func (a *DirArchive) Close() error { return nil }

// checkEntryName 拒绝绝对路径以及会跳出归档根目录的条目名。
func checkEntryName(name string) error {
	clean := path.Clean(filepath.ToSlash(name))
	if name == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(name, "\\") {
		return fmt.Errorf("非法的归档条目名 %q", name)
	}
	return nil
}

// ArchiveName 返回归档文件名，例如 "SVG-LBRN2_labels_2024-05-01--9-5.zip"。
// 时与分不补零。
func ArchiveName(formats []string, t time.Time) string {
	upper := make([]string, 0, len(formats))
	for _, f := range formats {
		upper = append(upper, strings.ToUpper(f))
	}
	return fmt.Sprintf("%s_labels_%s--%d-%d.zip", strings.Join(upper, "-"), t.Format("2006-01-02"), t.Hour(), t.Minute())
}

// Write 将所有分组成功产出的文件写入归档，路径为 <folder>/<file>。
// 任一文件写入失败即返回 *ArchiveWriteError。写入完成后关闭归档。
func Write(a Archive, res *Result) error {
	for _, g := range res.Groups {
		for _, f := range g.Files {
			name := path.Join(g.Folder, f.Name)
			if err := a.Add(name, f.Data); err != nil {
				return &ArchiveWriteError{Name: name, Err: err}
			}
		}
	}
	if err := a.Close(); err != nil {
		return &ArchiveWriteError{Err: err}
	}
	return nil
}
