package main

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/ninja0404/defi-reputation/internal/app"
	"github.com/ninja0404/defi-reputation/pkg/utils"
)

func main() {
	// 本地开发时从.env注入环境变量，文件不存在时忽略
	_ = godotenv.Load()

	configPath := utils.GetConfigFilePath()
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	// 创建应用实例
	application := app.New()

	// 启动应用
	if err := application.Start(configPath); err != nil {
		fmt.Printf("应用启动失败: %v\n", err)
		return
	}
}
