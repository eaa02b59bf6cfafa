package db

import "go.uber.org/zap"

// El paquet core configura el logger global de zap; aquí només hi afegim el nom.
func logger() *zap.SugaredLogger {
	return zap.S().Named("db")
}

func logInfof(format string, v ...interface{}) {
	logger().Infof(format, v...)
}

func logErrorf(format string, v ...interface{}) {
	logger().Errorf(format, v...)
}
