// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package healthcheck

import (
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

var ErrStatus = errors.New("status code is invalid")

// Ping notifies a healthchecks.io-style ping URL that a run finished. When
// ok is false the failure endpoint is hit instead. An empty URL disables
// pinging.
func Ping(url string, ok bool) error {
	if url == "" {
		return nil
	}

	if !ok {
		url += "/fail"
	}

	client := resty.New()
	resp, err := client.R().Post(url)
	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
