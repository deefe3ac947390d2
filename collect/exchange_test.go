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
package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeCollect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"OutBlock_1":[
			{"ISU_SRT_CD":"5930","ISU_NM":"Samsung Electronics Co., Ltd.","ISU_ABBRV":"SamsungElec","ISU_ENG_NM":"SamsungElectronics","LIST_DD":"1975/06/11","MKT_TP_NM":"KOSPI","LIST_SHRS":"5,969,782,550"},
			{"ISU_SRT_CD":"000660","ISU_NM":"SK hynix Inc.","ISU_ABBRV":"SKhynix","ISU_ENG_NM":"SK hynix","LIST_DD":"1996/12/26","MKT_TP_NM":"KOSPI","LIST_SHRS":"728,002,365"}
		]}`)
	}))
	defer server.Close()

	exchange := NewExchange(testConfig(server.URL))
	companies, err := exchange.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)

	assert.Equal(t, "005930", companies[0].Code, "codes are zero-padded to 6 characters")
	assert.Equal(t, int64(5969782550), companies[0].OutstandingShares)
	assert.Equal(t, "KOSPI", companies[0].Market)
	assert.Equal(t, "000660", companies[1].Code)
}

func TestExchangeCollectRetriesThenFails(t *testing.T) {
	shrinkBackoff(t)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	exchange := NewExchange(testConfig(server.URL))
	_, err := exchange.Collect(context.Background())

	require.Error(t, err, "discovery failure must propagate, it is not defaultable")
	assert.Equal(t, maxAttempts, calls)
}

func TestPadCode(t *testing.T) {
	assert.Equal(t, "000001", PadCode("1"))
	assert.Equal(t, "005930", PadCode("5930"))
	assert.Equal(t, "123456", PadCode("123456"))
}
