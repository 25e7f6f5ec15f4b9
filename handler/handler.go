package handler

import (
	"github.com/sirupsen/logrus"

	"falproxy/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}
