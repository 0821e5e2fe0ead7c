// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package sauvola

// This file contains various cloud account specific stuff; change this if
// you want to use the cloud functionality on your own site.

const defaultAwsRegion = `eu-west-2`

// Storage bucket names
const (
	storageWip = "sauvolainprogress"
)

// Name of the directory LocalConn keeps its storage in, inside TempDir
const storageId = "storage"
