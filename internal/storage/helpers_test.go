package storage

import "coopsched/pkg/logx"

var logxZero = logx.Logger{}
