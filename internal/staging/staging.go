// Package staging 在服务启动前把打包的静态素材复制到对外服务的目录树。
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"kids-talk-go/pkg/log"
)

// 固定的素材清单。源目录里缺失的文件会被跳过，不算错误。
var (
	imageFiles = []string{"moon.jpg", "sun.jpg", "rock.jpg", "tree.jpg"}
	soundFiles = []string{"moon_hello.mp3", "sun_hello.mp3", "rock_hello.mp3", "tree_hello.mp3"}
)

// Run 把 assetsDir 下的图片和音频复制到 staticDir 的对应子目录。
// 幂等：每次启动都可以安全执行，已存在的目标文件会被覆盖为源文件内容。
func Run(assetsDir, staticDir string) error {
	if err := copyManifest(filepath.Join(assetsDir, "images"), filepath.Join(staticDir, "images"), imageFiles); err != nil {
		return err
	}
	if err := copyManifest(filepath.Join(assetsDir, "sounds"), filepath.Join(staticDir, "sounds"), soundFiles); err != nil {
		return err
	}
	// 合成语音的落盘目录也在这里一并建好
	if err := os.MkdirAll(filepath.Join(staticDir, "temp"), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	return nil
}

func copyManifest(srcDir, dstDir string, names []string) error {
	if err := os.MkdirAll(dstDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create dir %s: %w", dstDir, err)
	}

	for _, name := range names {
		src := filepath.Join(srcDir, name)
		if _, err := os.Stat(src); err != nil {
			log.Infof("staging: 源文件不存在，跳过: %s", src)
			continue
		}
		if err := copyFile(src, filepath.Join(dstDir, name)); err != nil {
			return fmt.Errorf("failed to stage %s: %w", name, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
