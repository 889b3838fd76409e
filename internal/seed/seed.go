package seed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/catalogio"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/utils"
)

// LoadCatalog 根据路径读取目录：目录下的 csv 文件或单个 xlsx 工作簿
func LoadCatalog(path string) (*domain.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var c *domain.Catalog
	switch {
	case info.IsDir():
		c, err = catalogio.LoadCSVDir(path)
	case strings.EqualFold(filepath.Ext(path), ".xlsx"):
		c, err = catalogio.LoadWorkbook(path)
	default:
		return nil, fmt.Errorf("不支持的文件类型: %s", path)
	}
	if err != nil {
		return nil, err
	}

	// 没有指定名称时使用文件名
	c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if err := utils.ValidateCatalog(c); err != nil {
		return nil, err
	}

	return c, nil
}

// SeedCatalogFile 导入真实的目录数据
func SeedCatalogFile(r *repository.Repository, path string, name string) error {
	c, err := LoadCatalog(path)
	if err != nil {
		return err
	}
	if name != "" {
		c.Name = name
	}
	c.Description = fmt.Sprintf("从 %s 导入", path)

	if err := r.CreateCatalog(c); err != nil {
		return err
	}

	slog.Info("插入目录成功", slog.Int64("id", c.ID), slog.String("name", c.Name), slog.Int("course_sections", len(c.CourseSections)), slog.Int("teachers", len(c.Teachers)))
	return nil
}

// SeedRandomCatalogs 插入 n 个随机目录
func SeedRandomCatalogs(r *repository.Repository, n int, sections int, rooms int, teachers int) int {
	cnt := 0
	for i := 0; i < n; i++ {
		c := utils.GenerateRandomCatalog(sections, rooms, teachers)
		if err := utils.ValidateCatalog(c); err != nil {
			slog.Error("生成的随机目录无效", slog.String("error", err.Error()))
			continue
		}

		if err := r.CreateCatalog(c); err != nil {
			slog.Error("无法插入目录", slog.String("error", err.Error()))
			continue
		}

		cnt++
	}

	return cnt
}

// SeedRandomUsers 插入 n 个随机的教务员，所有人使用同一个密码
func SeedRandomUsers(r *repository.Repository, n int, password string, emailDomain string) int {
	cnt := 0
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomUser(password, emailDomain)
		if err != nil {
			slog.Error("无法生成随机用户", slog.String("error", err.Error()))
			continue
		}

		// 拼音用户名可能重名，唯一约束会拒绝
		if err := r.CreateUser(user); err != nil {
			slog.Error("无法插入用户", slog.String("username", user.Username), slog.String("error", err.Error()))
			continue
		}

		cnt++
	}

	return cnt
}
