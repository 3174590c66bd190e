package logging

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// New 根据环境变量构造日志器：LOG_LEVEL 控制级别（默认 info），
// LOG_JSON=true 时输出 JSON 格式。
func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if jsonFormat, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("LOG_JSON"))); jsonFormat {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}
