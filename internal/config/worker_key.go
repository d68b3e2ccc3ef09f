package config

type WorkerKeyStruct struct {
	RefreshSnapshotsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	RefreshSnapshotsQueue: "refresh_snapshots_queue",
}
