package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/infra"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/seed"
)

func main() {
	var (
		op                        int
		n                         int
		sections, rooms, teachers int
		path, name                string
	)

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机目录, 3: 导入目录文件)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.IntVar(&sections, "sections", 30, "随机目录中的课程班次数量")
	flag.IntVar(&rooms, "rooms", 3, "随机目录中的教室数量")
	flag.IntVar(&teachers, "teachers", 10, "随机目录中的教师数量")
	flag.StringVar(&path, "path", "", "要导入的 xlsx 文件或 csv 目录")
	flag.StringVar(&name, "name", "", "导入后的目录名称，默认使用文件名")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}

	dbpool, err := infra.OpenDB(cfg)
	if err != nil {
		logger.Error("无法初始化数据库", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 {
			logger.Error("请输入合法的用户数量")
			return
		}
		cnt := seed.SeedRandomUsers(repo, n, cfg.Seed.User.Password, cfg.Email.UserDomain)
		logger.Info("插入用户成功", "count", cnt)
	case 2:
		if n <= 0 || sections <= 0 || rooms <= 0 || teachers <= 0 {
			logger.Error("请输入合法的目录数量和规模")
			return
		}
		cnt := seed.SeedRandomCatalogs(repo, n, sections, rooms, teachers)
		logger.Info("插入目录成功", "count", cnt)
	case 3:
		if path == "" {
			logger.Error("请指定要导入的文件")
			return
		}
		if err := seed.SeedCatalogFile(repo, path, name); err != nil {
			logger.Error("导入目录失败", "path", path, "error", err)
		}
	default:
		logger.Error("指定的操作非法")
	}
}
